package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagicLinkHTMLEmbedsURL(t *testing.T) {
	html, err := MagicLinkHTML("https://vesteria.test/api/auth/verify?token=abc123")
	require.NoError(t, err)

	assert.Contains(t, html, `href="https://vesteria.test/api/auth/verify?token=abc123"`)
	assert.Contains(t, html, "Sign in to <strong>Vesteria</strong>")
	assert.Contains(t, html, "safely ignore")
}

func TestMagicLinkHTMLEscapes(t *testing.T) {
	html, err := MagicLinkHTML(`https://vesteria.test/?q="><script>`)
	require.NoError(t, err)
	assert.False(t, strings.Contains(html, "<script>"), "URL content must be escaped into the template")
}

func TestLogMailerNeverFails(t *testing.T) {
	m := NewLogMailer(zerolog.Nop())
	assert.NoError(t, m.Send(context.Background(), "a@example.com", "subject", "<p>hi</p>"))
}
