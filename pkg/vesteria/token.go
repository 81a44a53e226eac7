package vesteria

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// magicLinkTTL bounds how long an emailed link stays valid.
const magicLinkTTL = 15 * time.Minute

// newMagicLinkToken signs a token carrying the email address as its subject
// and the pending link's ID as its jti. The signature proves the server
// issued the link; single use is enforced by consuming the matching store
// record on first verification.
func newMagicLinkToken(secret, email, linkID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    "vesteria",
		Subject:   email,
		ID:        linkID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(magicLinkTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign magic link token: %w", err)
	}
	return signed, nil
}

// parseMagicLinkToken validates a magic-link token and returns the email
// address it was issued for and the pending link ID. Expired or tampered
// tokens fail verification.
func parseMagicLinkToken(secret, tokenStr string) (email, linkID string, err error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", fmt.Errorf("invalid magic link token: %w", err)
	}
	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return "", "", fmt.Errorf("invalid magic link token")
	}
	return claims.Subject, claims.ID, nil
}
