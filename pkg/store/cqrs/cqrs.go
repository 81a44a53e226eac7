// Package cqrs implements the dual-store migration combinator.
//
// CQRSStore holds the legacy store (primary) and the store being migrated to
// (secondary) and routes each read and write according to the current
// migration mode. There is no dual-write: consistency between the stores is
// maintained by background timestamp-based synchronization plus a read-only
// switchover window, which avoids partial-failure scenarios entirely.
//
// Migration flow:
//  1. ModeSingle: primary serves everything, background sync copies to secondary
//  2. ModeReadOnly: writes blocked, final catch-up sync runs
//  3. ModeSwitching: reads served from secondary to validate it, writes still blocked to primary routing
//  4. ModeReversed: secondary serves reads and writes, primary kept for rollback
//  5. SwapStores + ModeSingle: secondary is the new primary, migration done
package cqrs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tes-sudo/Vesteria/pkg/models"
	"github.com/Tes-sudo/Vesteria/pkg/store"
)

// MigrationMode defines the mode of database migration
type MigrationMode string

const (
	// ModeSingle operates with only the primary store, used before migration
	// starts or after it completes.
	ModeSingle MigrationMode = "single"

	// ModeReadOnly rejects all writes while reads continue from the primary
	// store. Used during the switchover phase so catch-up sync can run
	// against a frozen dataset.
	ModeReadOnly MigrationMode = "read_only"

	// ModeSwitching reads from the secondary store while writes still go to
	// the primary. Validates that the secondary is ready to take over.
	ModeSwitching MigrationMode = "switching"

	// ModeReversed serves reads and writes from the secondary store while
	// the primary is kept around for rollback.
	ModeReversed MigrationMode = "reversed"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (MigrationMode, error) {
	switch MigrationMode(s) {
	case ModeSingle, ModeReadOnly, ModeSwitching, ModeReversed:
		return MigrationMode(s), nil
	}
	return "", fmt.Errorf("invalid migration mode: %q", s)
}

// CQRSStore implements the Store interface across two backends during a
// migration window.
type CQRSStore struct {
	primary   store.Store
	secondary store.Store
	mode      MigrationMode
	logger    zerolog.Logger
	mu        sync.RWMutex
}

// NewCQRSStore creates a migration store over a primary and secondary backend.
// The logger reports per-record sync failures.
func NewCQRSStore(primary, secondary store.Store, mode MigrationMode, logger zerolog.Logger) *CQRSStore {
	return &CQRSStore{
		primary:   primary,
		secondary: secondary,
		mode:      mode,
		logger:    logger,
	}
}

// SetMode changes the migration mode. Leaving read_only is only allowed
// toward switching or single; anything else would unfreeze writes without a
// completed catch-up sync.
func (c *CQRSStore) SetMode(mode MigrationMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeReadOnly && mode != ModeSwitching && mode != ModeSingle {
		return fmt.Errorf("can only transition from read_only to switching or single mode")
	}

	c.mode = mode
	return nil
}

// GetMode returns the current migration mode.
func (c *CQRSStore) GetMode() MigrationMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// SwapStores swaps primary and secondary. Used after a successful migration
// to make the secondary the new primary before returning to ModeSingle.
func (c *CQRSStore) SwapStores() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.primary, c.secondary = c.secondary, c.primary
}

// getReadStore returns the store serving reads in the current mode.
func (c *CQRSStore) getReadStore() store.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.mode {
	case ModeSwitching, ModeReversed:
		return c.secondary
	default:
		return c.primary
	}
}

// getWriteStore returns the store accepting writes, or an error in read-only
// mode.
func (c *CQRSStore) getWriteStore() (store.Store, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.mode == ModeReadOnly {
		return nil, fmt.Errorf("system is in read-only mode during migration")
	}

	if c.mode == ModeReversed {
		return c.secondary, nil
	}

	return c.primary, nil
}

// Migrate runs schema migration on both stores so they stay structurally
// compatible for sync.
func (c *CQRSStore) Migrate(ctx context.Context) error {
	if err := c.primary.Migrate(ctx); err != nil {
		return fmt.Errorf("primary migration failed: %w", err)
	}
	if c.secondary != nil {
		if err := c.secondary.Migrate(ctx); err != nil {
			return fmt.Errorf("secondary migration failed: %w", err)
		}
	}
	return nil
}

// Close closes both stores.
func (c *CQRSStore) Close() error {
	var primaryErr, secondaryErr error

	primaryErr = c.primary.Close()
	if c.secondary != nil {
		secondaryErr = c.secondary.Close()
	}

	if primaryErr != nil {
		return primaryErr
	}
	return secondaryErr
}

// User operations

func (c *CQRSStore) CreateUser(ctx context.Context, user *models.User) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.CreateUser(ctx, user)
}

func (c *CQRSStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	return c.getReadStore().GetUser(ctx, id)
}

func (c *CQRSStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.getReadStore().GetUserByEmail(ctx, email)
}

func (c *CQRSStore) UpdateUser(ctx context.Context, user *models.User) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.UpdateUser(ctx, user)
}

func (c *CQRSStore) DeleteUser(ctx context.Context, id models.UserID) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.DeleteUser(ctx, id)
}

// Post operations

func (c *CQRSStore) CreatePost(ctx context.Context, post *models.Post) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.CreatePost(ctx, post)
}

func (c *CQRSStore) GetPost(ctx context.Context, id models.PostID) (*models.Post, error) {
	return c.getReadStore().GetPost(ctx, id)
}

func (c *CQRSStore) UpdatePost(ctx context.Context, post *models.Post) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.UpdatePost(ctx, post)
}

func (c *CQRSStore) DeletePost(ctx context.Context, id models.PostID) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.DeletePost(ctx, id)
}

func (c *CQRSStore) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return c.getReadStore().ListPosts(ctx)
}

func (c *CQRSStore) ListPostsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Post, error) {
	return c.getReadStore().ListPostsByAuthor(ctx, authorID)
}

// Comment operations

func (c *CQRSStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.CreateComment(ctx, comment)
}

func (c *CQRSStore) GetComment(ctx context.Context, id models.CommentID) (*models.Comment, error) {
	return c.getReadStore().GetComment(ctx, id)
}

func (c *CQRSStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.UpdateComment(ctx, comment)
}

func (c *CQRSStore) DeleteComment(ctx context.Context, id models.CommentID) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.DeleteComment(ctx, id)
}

func (c *CQRSStore) ListCommentsByPost(ctx context.Context, postID models.PostID) ([]*models.Comment, error) {
	return c.getReadStore().ListCommentsByPost(ctx, postID)
}

func (c *CQRSStore) ListCommentsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Comment, error) {
	return c.getReadStore().ListCommentsByAuthor(ctx, authorID)
}

// Magic-link operations
//
// Pending links route like other writes. Consuming a link is a write even
// though it returns a record, so a read-only window pauses sign-ins entirely.

func (c *CQRSStore) CreateMagicLink(ctx context.Context, link *models.MagicLink) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.CreateMagicLink(ctx, link)
}

func (c *CQRSStore) ConsumeMagicLink(ctx context.Context, id models.MagicLinkID) (*models.MagicLink, error) {
	s, err := c.getWriteStore()
	if err != nil {
		return nil, err
	}
	return s.ConsumeMagicLink(ctx, id)
}

func (c *CQRSStore) DeleteExpiredMagicLinks(ctx context.Context) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.DeleteExpiredMagicLinks(ctx)
}

// Session operations
//
// Sessions follow the same routing as everything else so an issued token is
// resolvable from whichever store serves reads.

func (c *CQRSStore) CreateSession(ctx context.Context, session *models.Session) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.CreateSession(ctx, session)
}

func (c *CQRSStore) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	return c.getReadStore().GetSessionByToken(ctx, token)
}

func (c *CQRSStore) DeleteSession(ctx context.Context, id models.SessionID) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.DeleteSession(ctx, id)
}

func (c *CQRSStore) DeleteExpiredSessions(ctx context.Context) error {
	s, err := c.getWriteStore()
	if err != nil {
		return err
	}
	return s.DeleteExpiredSessions(ctx)
}

// Timestamp-based catch-up methods

func (c *CQRSStore) ListModifiedUserIDs(ctx context.Context, since, until time.Time) ([]models.UserID, error) {
	return c.primary.ListModifiedUserIDs(ctx, since, until)
}

func (c *CQRSStore) ListModifiedPostIDs(ctx context.Context, since, until time.Time) ([]models.PostID, error) {
	return c.primary.ListModifiedPostIDs(ctx, since, until)
}

func (c *CQRSStore) ListModifiedCommentIDs(ctx context.Context, since, until time.Time) ([]models.CommentID, error) {
	return c.primary.ListModifiedCommentIDs(ctx, since, until)
}
