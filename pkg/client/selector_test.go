package client

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUseReactiveHonorsFlag(t *testing.T) {
	t.Setenv("VESTERIA_USE_REACTIVE", "false")
	assert.False(t, UseReactive(), "explicit false must select the legacy backend")

	t.Setenv("VESTERIA_USE_REACTIVE", "true")
	assert.True(t, UseReactive())
}

func TestUseReactiveDefaultsToReactive(t *testing.T) {
	t.Setenv("VESTERIA_USE_REACTIVE", "")
	os.Unsetenv("VESTERIA_USE_REACTIVE")
	assert.True(t, UseReactive(), "unset flag defaults to the reactive backend")
}

func TestUseReactiveConsistentAcrossCalls(t *testing.T) {
	t.Setenv("VESTERIA_USE_REACTIVE", "false")
	first := UseReactive()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, UseReactive(), "repeated calls must agree while the flag is stable")
	}
}
