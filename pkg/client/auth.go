package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Tes-sudo/Vesteria/pkg/models"
)

// VerifyResponse is returned when a magic link is exchanged for a session.
type VerifyResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// RequestMagicLink asks the server to email a sign-in link. It returns as
// soon as the mail is accepted; nothing waits on the link being clicked.
func (c *Client) RequestMagicLink(ctx context.Context, email string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/magic-link", map[string]string{"email": email})
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}

// Verify exchanges a magic-link token for a session. On success the session
// token is installed on the client for subsequent requests.
func (c *Client) Verify(ctx context.Context, token string) (*VerifyResponse, error) {
	path := fmt.Sprintf("/api/auth/verify?token=%s", url.QueryEscape(token))
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result VerifyResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	c.SetAuthToken(result.Token)
	return &result, nil
}

// SignOut deletes the session server side and clears the local token.
func (c *Client) SignOut(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/signout", nil)
	if err != nil {
		return err
	}
	if err := decodeResponse(resp, nil); err != nil {
		return err
	}

	c.SetAuthToken("")
	return nil
}

// Viewer returns the signed-in user. Without a valid session the error
// satisfies errors.Is(err, models.ErrNotAuthenticated).
func (c *Client) Viewer(ctx context.Context) (*models.User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var result models.User
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
