// Package client is the Go client library for the Vesteria posting API.
//
// Two clients speak to the same server. [Client] is the legacy
// request/response HTTP client. [ReactiveClient] subscribes to the server's
// websocket push feed and maintains a live view of the post list. [Facade]
// sits above both and presents one API shaped like the legacy client's
// responses, choosing a backend once at construction via [UseReactive].
//
// The facade exists for a frontend migration: screens written against the
// legacy shape keep working, byte for byte, while the data underneath moves
// to the reactive feed. When the migration completes the facade and the
// legacy shape go away together.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Tes-sudo/Vesteria/pkg/models"
)

// Client provides typed access to the Vesteria REST API. It manages JSON
// serialization and the bearer token, and maps HTTP error statuses back to
// the sentinel errors in [github.com/Tes-sudo/Vesteria/pkg/models] so
// errors.Is works across the wire.
//
// Client instances are safe for concurrent use by multiple goroutines once
// the token is set.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// NewClient creates an API client. The baseURL includes protocol and host
// ("http://localhost:8080") with no trailing slash.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetAuthToken sets the bearer token attached to every subsequent request.
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

// AuthToken returns the current bearer token, empty when signed out.
func (c *Client) AuthToken() string {
	return c.authToken
}

// doRequest performs an HTTP request with JSON and auth headers.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	return c.httpClient.Do(req)
}

// decodeResponse decodes the JSON response into target, translating error
// statuses into sentinel errors. The server's error message rides along as
// wrapping text.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		message := errorMessage(body)

		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", message, models.ErrNotFound)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", message, models.ErrNotAuthenticated)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w", message, models.ErrNotAuthorized)
		}
		return fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// errorMessage extracts the "error" field from an error response body,
// falling back to the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(body)
}

// Health checks the health status of the server.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// Post operations

// ListPosts retrieves all posts, newest first, with author details joined.
func (c *Client) ListPosts(ctx context.Context) ([]*models.Post, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/posts", nil)
	if err != nil {
		return nil, err
	}

	var result []*models.Post
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// ListPostsByAuthor retrieves one user's posts, newest first. An unknown
// user returns an error satisfying errors.Is(err, models.ErrNotFound).
func (c *Client) ListPostsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Post, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/users/%s/posts", authorID), nil)
	if err != nil {
		return nil, err
	}

	var result []*models.Post
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// GetPost retrieves a single post by ID. A missing post returns an error
// satisfying errors.Is(err, models.ErrNotFound).
func (c *Client) GetPost(ctx context.Context, id models.PostID) (*models.Post, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/posts/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var result models.Post
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// CreatePost creates a post authored by the signed-in user.
func (c *Client) CreatePost(ctx context.Context, title, content string) (*models.Post, error) {
	body := map[string]string{"title": title, "content": content}
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/posts", body)
	if err != nil {
		return nil, err
	}

	var result models.Post
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// UpdatePost applies a partial patch to a post. Nil fields are left
// untouched server side.
func (c *Client) UpdatePost(ctx context.Context, id models.PostID, title, content *string) (*models.Post, error) {
	body := map[string]*string{"title": title, "content": content}
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/posts/%s", id), body)
	if err != nil {
		return nil, err
	}

	var result models.Post
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DeletePost deletes a post the signed-in user authored.
func (c *Client) DeletePost(ctx context.Context, id models.PostID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/posts/%s", id), nil)
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}

// Comment operations

// ListComments retrieves the comments on a post, oldest first.
func (c *Client) ListComments(ctx context.Context, postID models.PostID) ([]*models.Comment, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/posts/%s/comments", postID), nil)
	if err != nil {
		return nil, err
	}

	var result []*models.Comment
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// ListCommentsByAuthor retrieves one user's comments, oldest first.
func (c *Client) ListCommentsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Comment, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/users/%s/comments", authorID), nil)
	if err != nil {
		return nil, err
	}

	var result []*models.Comment
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// CreateComment adds a comment to a post.
func (c *Client) CreateComment(ctx context.Context, postID models.PostID, content string) (*models.Comment, error) {
	body := map[string]string{"content": content}
	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/posts/%s/comments", postID), body)
	if err != nil {
		return nil, err
	}

	var result models.Comment
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteComment deletes a comment the signed-in user authored.
func (c *Client) DeleteComment(ctx context.Context, id models.CommentID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/comments/%s", id), nil)
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}

// Administrative operations

// GetMode returns the server's current migration mode.
func (c *Client) GetMode(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/mode", nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Mode string `json:"mode"`
	}
	if err := decodeResponse(resp, &result); err != nil {
		return "", err
	}

	return result.Mode, nil
}

// SetMode advances the server's migration mode.
func (c *Client) SetMode(ctx context.Context, mode string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/mode", map[string]string{"mode": mode})
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}
