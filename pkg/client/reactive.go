package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/Tes-sudo/Vesteria/pkg/models"
)

// postEvent mirrors the server's push payload.
type postEvent struct {
	Action string       `json:"action"`
	Post   *models.Post `json:"post"`
}

// ReactiveClient maintains a live view of the post list by subscribing to
// the server's websocket feed. Each subscription seeds itself with a full
// list fetch, then applies pushed change events, so subscribers always see a
// complete ordered list rather than a delta stream.
type ReactiveClient struct {
	api *Client
}

// NewReactiveClient creates a reactive client sharing the given API client's
// base URL and auth token.
func NewReactiveClient(api *Client) *ReactiveClient {
	return &ReactiveClient{api: api}
}

// API returns the underlying request/response client. Mutations go through
// it; the subscription feed reflects them back.
func (rc *ReactiveClient) API() *Client {
	return rc.api
}

// wsURL converts the API base URL into the websocket endpoint.
func (rc *ReactiveClient) wsURL() (string, error) {
	u, err := url.Parse(rc.api.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/api/subscribe"
	return u.String(), nil
}

// Subscribe opens an independent live view of the post list. The returned
// channel delivers the full list on every change, starting with the current
// state. Cancelling the context ends the subscription and closes the
// channel. Multiple subscribers each get their own connection and delivery.
func (rc *ReactiveClient) Subscribe(ctx context.Context) (<-chan []*models.Post, error) {
	endpoint, err := rc.wsURL()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if rc.api.authToken != "" {
		header.Set("Authorization", "Bearer "+rc.api.authToken)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	// Seed after the socket is open so no event between fetch and dial is
	// lost; an event that raced the fetch reapplies harmlessly.
	posts, err := rc.api.ListPosts(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}

	out := make(chan []*models.Post, 1)
	events := make(chan postEvent)

	go func() {
		defer close(events)
		for {
			var event postEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer close(out)
		defer conn.Close()

		deliver := func() bool {
			select {
			case out <- snapshot(posts):
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !deliver() {
			return
		}

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				posts = applyEvent(posts, event)
				if !deliver() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// snapshot copies the list so subscribers never share backing arrays with
// later mutations.
func snapshot(posts []*models.Post) []*models.Post {
	out := make([]*models.Post, len(posts))
	copy(out, posts)
	return out
}

// applyEvent folds one change event into the ordered list. Creation prepends
// to keep newest-first ordering; an update for an unknown post is treated as
// a creation so a missed event does not hide the post forever.
func applyEvent(posts []*models.Post, event postEvent) []*models.Post {
	if event.Post == nil {
		return posts
	}

	switch event.Action {
	case "created":
		for i, p := range posts {
			if p.ID == event.Post.ID {
				posts[i] = event.Post
				return posts
			}
		}
		return append([]*models.Post{event.Post}, posts...)
	case "updated":
		for i, p := range posts {
			if p.ID == event.Post.ID {
				posts[i] = event.Post
				return posts
			}
		}
		return append([]*models.Post{event.Post}, posts...)
	case "deleted":
		for i, p := range posts {
			if p.ID == event.Post.ID {
				return append(posts[:i], posts[i+1:]...)
			}
		}
	}
	return posts
}
