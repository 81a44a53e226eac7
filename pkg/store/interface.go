// Package store defines the persistence boundary of the application.
//
// A single [Store] interface is implemented by both backends (PostgreSQL via
// GORM, SurrealDB via the native client) plus the migration-window
// combinators built on top of them: [github.com/Tes-sudo/Vesteria/pkg/store/cqrs.CQRSStore]
// for dual-store routing and [ReadOnlyStore] for cutover freezes. Handlers
// and services depend only on this interface, so which backend actually
// serves a request is decided once at composition time.
//
// Conventions every implementation must follow:
//
//   - Get* returns (nil, nil) when the record does not exist. Absence is a
//     domain outcome, not an error; callers translate it into their own
//     not-found handling.
//   - List* returns an empty slice, never nil, when nothing matches.
//   - Update* is a full record replacement keyed by ID.
//   - Migrate is idempotent and safe to run repeatedly.
//   - ListModified*IDs returns the IDs of records created or updated within
//     [since, until); it powers timestamp-based catch-up sync between
//     backends and must include soft-deleted records.
package store

import (
	"context"
	"time"

	"github.com/Tes-sudo/Vesteria/pkg/models"
)

// Store is the persistence interface for all application entities.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id models.UserID) error

	// Post operations. ListPosts is reverse-chronological by creation
	// time; the ordering is part of the contract, not a presentation
	// concern.
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id models.PostID) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id models.PostID) error
	ListPosts(ctx context.Context) ([]*models.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Post, error)

	// Comment operations
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id models.CommentID) (*models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id models.CommentID) error
	ListCommentsByPost(ctx context.Context, postID models.PostID) ([]*models.Comment, error)
	ListCommentsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Comment, error)

	// Magic-link operations. A pending link is created when the sign-in
	// mail goes out and consumed the first time it is verified.
	// ConsumeMagicLink removes and returns the record in one call; it
	// returns (nil, nil) when the link is unknown or already consumed,
	// which is how replayed links are rejected.
	CreateMagicLink(ctx context.Context, link *models.MagicLink) error
	ConsumeMagicLink(ctx context.Context, id models.MagicLinkID) (*models.MagicLink, error)
	DeleteExpiredMagicLinks(ctx context.Context) error

	// Session operations. Sessions are looked up by their opaque bearer
	// token on every authenticated request.
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, id models.SessionID) error
	DeleteExpiredSessions(ctx context.Context) error

	// Modified-ID listings for catch-up synchronization between backends.
	ListModifiedUserIDs(ctx context.Context, since, until time.Time) ([]models.UserID, error)
	ListModifiedPostIDs(ctx context.Context, since, until time.Time) ([]models.PostID, error)
	ListModifiedCommentIDs(ctx context.Context, since, until time.Time) ([]models.CommentID, error)

	// Migrate initializes or updates the backend schema.
	Migrate(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}
