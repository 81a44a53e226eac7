package vesteria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tes-sudo/Vesteria/pkg/models"
)

func TestMagicLinkTokenRoundTrip(t *testing.T) {
	linkID := models.NewMagicLinkID()
	token, err := newMagicLinkToken("secret", "user@example.com", linkID.String(), time.Now())
	require.NoError(t, err)

	email, gotID, err := parseMagicLinkToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
	assert.Equal(t, linkID.String(), gotID)
}

func TestMagicLinkTokenExpired(t *testing.T) {
	issued := time.Now().Add(-magicLinkTTL - time.Minute)
	token, err := newMagicLinkToken("secret", "user@example.com", models.NewMagicLinkID().String(), issued)
	require.NoError(t, err)

	_, _, err = parseMagicLinkToken("secret", token)
	assert.Error(t, err, "a token past its expiry must not verify")
}

func TestMagicLinkTokenWrongSecret(t *testing.T) {
	token, err := newMagicLinkToken("secret", "user@example.com", models.NewMagicLinkID().String(), time.Now())
	require.NoError(t, err)

	_, _, err = parseMagicLinkToken("other-secret", token)
	assert.Error(t, err)
}

func TestMagicLinkTokenGarbage(t *testing.T) {
	_, _, err := parseMagicLinkToken("secret", "not-a-jwt")
	assert.Error(t, err)
}
