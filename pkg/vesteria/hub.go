package vesteria

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Tes-sudo/Vesteria/pkg/models"
)

// PostEvent is pushed to every live subscriber after a successful post
// mutation. Action is "created", "updated", or "deleted"; for deletions Post
// carries only the ID.
type PostEvent struct {
	Action string       `json:"action"`
	Post   *models.Post `json:"post"`
}

// Hub fans post change events out to websocket subscribers. Subscribers that
// cannot keep up are disconnected rather than allowed to block the rest.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan PostEvent]struct{}
	logger      zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan PostEvent]struct{}),
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the app origin; the session
			// token authenticates, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Broadcast delivers an event to every current subscriber without blocking.
// A subscriber with a full buffer misses the event; the resubscribe-on-error
// loop in the client recovers by refetching.
func (h *Hub) Broadcast(event PostEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.logger.Warn().Str("action", event.Action).Msg("dropping event for slow subscriber")
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) subscribe() chan PostEvent {
	ch := make(chan PostEvent, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan PostEvent) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
}

// ServeWS upgrades the request to a websocket connection and streams post
// events to it until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	h.logger.Debug().Str("remote", r.RemoteAddr).Msg("subscriber connected")

	// Drain incoming frames so pings and close messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event := <-ch:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Msg("subscriber write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
