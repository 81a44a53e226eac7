package store

import (
	"context"
	"fmt"

	"github.com/Tes-sudo/Vesteria/pkg/models"
)

// ReadOnlyStore wraps a Store and rejects writes while the application is in
// read-only mode. It exists for the final phase of a backend migration: block
// new writes, run catch-up sync so both stores agree, then flip the mode and
// resume.
//
// The read-only state is sampled through the isReadOnly function on every
// write, so the mode can be toggled at runtime without rebuilding the store.
// Reads always pass through. Session creation and deletion are treated as
// writes; a cutover window therefore also pauses sign-ins, which is the
// conservative choice for consistency.
type ReadOnlyStore struct {
	Store
	isReadOnly func() bool
}

// NewReadOnlyStore creates a read-only wrapper around a store.
func NewReadOnlyStore(s Store, isReadOnly func() bool) Store {
	return &ReadOnlyStore{
		Store:      s,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying store.
func (r *ReadOnlyStore) Unwrap() Store {
	return r.Store
}

func (r *ReadOnlyStore) checkReadOnly() error {
	if r.isReadOnly() {
		return fmt.Errorf("operation denied: application is in read-only mode for data consistency")
	}
	return nil
}

func (r *ReadOnlyStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateUser(ctx, user)
}

func (r *ReadOnlyStore) UpdateUser(ctx context.Context, user *models.User) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateUser(ctx, user)
}

func (r *ReadOnlyStore) DeleteUser(ctx context.Context, id models.UserID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteUser(ctx, id)
}

func (r *ReadOnlyStore) CreatePost(ctx context.Context, post *models.Post) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreatePost(ctx, post)
}

func (r *ReadOnlyStore) UpdatePost(ctx context.Context, post *models.Post) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdatePost(ctx, post)
}

func (r *ReadOnlyStore) DeletePost(ctx context.Context, id models.PostID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeletePost(ctx, id)
}

func (r *ReadOnlyStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateComment(ctx, comment)
}

func (r *ReadOnlyStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateComment(ctx, comment)
}

func (r *ReadOnlyStore) DeleteComment(ctx context.Context, id models.CommentID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteComment(ctx, id)
}

func (r *ReadOnlyStore) CreateMagicLink(ctx context.Context, link *models.MagicLink) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateMagicLink(ctx, link)
}

func (r *ReadOnlyStore) ConsumeMagicLink(ctx context.Context, id models.MagicLinkID) (*models.MagicLink, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.ConsumeMagicLink(ctx, id)
}

func (r *ReadOnlyStore) DeleteExpiredMagicLinks(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteExpiredMagicLinks(ctx)
}

func (r *ReadOnlyStore) CreateSession(ctx context.Context, session *models.Session) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateSession(ctx, session)
}

func (r *ReadOnlyStore) DeleteSession(ctx context.Context, id models.SessionID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteSession(ctx, id)
}

func (r *ReadOnlyStore) DeleteExpiredSessions(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteExpiredSessions(ctx)
}
