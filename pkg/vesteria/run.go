package vesteria

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Router builds the HTTP routing table. It is exported separately from Run so
// tests can mount the full API on an httptest server.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()

	// Auth routes
	api.HandleFunc("/auth/magic-link", a.handleMagicLink).Methods("POST")
	api.HandleFunc("/auth/verify", a.handleVerify).Methods("GET")
	api.HandleFunc("/auth/signout", a.handleSignOut).Methods("POST")
	api.HandleFunc("/auth/me", a.handleMe).Methods("GET")

	// Post routes
	api.HandleFunc("/posts", a.handleListPosts).Methods("GET")
	api.HandleFunc("/posts", a.handleCreatePost).Methods("POST")
	api.HandleFunc("/posts/{id}", a.handleGetPost).Methods("GET")
	api.HandleFunc("/posts/{id}", a.handleUpdatePost).Methods("PUT")
	api.HandleFunc("/posts/{id}", a.handleDeletePost).Methods("DELETE")

	// Author-scoped listings
	api.HandleFunc("/users/{id}/posts", a.handleListPostsByAuthor).Methods("GET")
	api.HandleFunc("/users/{id}/comments", a.handleListCommentsByAuthor).Methods("GET")

	// Comment routes
	api.HandleFunc("/posts/{id}/comments", a.handleListComments).Methods("GET")
	api.HandleFunc("/posts/{id}/comments", a.handleCreateComment).Methods("POST")
	api.HandleFunc("/comments/{id}", a.handleDeleteComment).Methods("DELETE")

	// Live updates
	api.HandleFunc("/subscribe", a.hub.ServeWS).Methods("GET")

	// Migration operations
	api.HandleFunc("/mode", a.handleGetMode).Methods("GET")
	api.HandleFunc("/mode", a.handleSetMode).Methods("POST")

	api.HandleFunc("/health", a.handleHealth).Methods("GET")
	router.HandleFunc("/health", a.handleHealth).Methods("GET")

	return router
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails. On cancellation active requests get five seconds to
// finish.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.logger.Info().Str("addr", addr).Str("mode", string(a.config.MigrationMode)).Msg("starting server")

	server := &http.Server{
		Addr:    addr,
		Handler: a.Router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
