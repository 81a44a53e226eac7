package cqrs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tes-sudo/Vesteria/pkg/store"
)

// SyncMissedUpdates performs forward timestamp-based catch-up synchronization
// from the primary to the secondary store. It copies every record modified
// within [since, until) so the secondary converges on the primary before a
// switchover.
//
// Individual record failures are logged and skipped; only failures that
// prevent discovering what changed abort the run. The operation is idempotent
// and safe to re-run with overlapping windows.
func (c *CQRSStore) SyncMissedUpdates(ctx context.Context, since, until time.Time) error {
	return syncMissedUpdates(ctx, c.primary, c.secondary, since, until, c.logger)
}

// ReverseSyncMissedUpdates synchronizes in the opposite direction, secondary
// to primary. Used for rollback preparation and for keeping the old primary
// current while ModeReversed routes writes to the secondary.
func (c *CQRSStore) ReverseSyncMissedUpdates(ctx context.Context, since, until time.Time) error {
	return syncMissedUpdates(ctx, c.secondary, c.primary, since, until, c.logger)
}

// syncMissedUpdates copies records modified in [since, until) from one store
// to the other. Users first so posts and comments never reference an author
// the destination has not seen.
func syncMissedUpdates(ctx context.Context, from, to store.Store, since, until time.Time, logger zerolog.Logger) error {
	userIDs, err := from.ListModifiedUserIDs(ctx, since, until)
	if err != nil {
		return fmt.Errorf("failed to list modified users: %w", err)
	}
	for _, id := range userIDs {
		user, err := from.GetUser(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get user %s: %w", id, err)
		}
		if user != nil {
			existing, _ := to.GetUser(ctx, id)
			if existing == nil {
				if err := to.CreateUser(ctx, user); err != nil {
					logger.Warn().Err(err).Stringer("user_id", id).Msg("failed to sync create user")
				}
			} else {
				if err := to.UpdateUser(ctx, user); err != nil {
					logger.Warn().Err(err).Stringer("user_id", id).Msg("failed to sync update user")
				}
			}
		}
	}

	postIDs, err := from.ListModifiedPostIDs(ctx, since, until)
	if err != nil {
		return fmt.Errorf("failed to list modified posts: %w", err)
	}
	for _, id := range postIDs {
		post, err := from.GetPost(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get post %s: %w", id, err)
		}
		if post != nil {
			existing, _ := to.GetPost(ctx, id)
			if existing == nil {
				if err := to.CreatePost(ctx, post); err != nil {
					logger.Warn().Err(err).Stringer("post_id", id).Msg("failed to sync create post")
				}
			} else {
				if err := to.UpdatePost(ctx, post); err != nil {
					logger.Warn().Err(err).Stringer("post_id", id).Msg("failed to sync update post")
				}
			}
		} else {
			// Modified but unreadable means soft-deleted at the
			// source; propagate the deletion.
			if err := to.DeletePost(ctx, id); err != nil {
				logger.Warn().Err(err).Stringer("post_id", id).Msg("failed to sync delete post")
			}
		}
	}

	commentIDs, err := from.ListModifiedCommentIDs(ctx, since, until)
	if err != nil {
		return fmt.Errorf("failed to list modified comments: %w", err)
	}
	for _, id := range commentIDs {
		comment, err := from.GetComment(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get comment %s: %w", id, err)
		}
		if comment != nil {
			existing, _ := to.GetComment(ctx, id)
			if existing == nil {
				if err := to.CreateComment(ctx, comment); err != nil {
					logger.Warn().Err(err).Stringer("comment_id", id).Msg("failed to sync create comment")
				}
			} else {
				if err := to.UpdateComment(ctx, comment); err != nil {
					logger.Warn().Err(err).Stringer("comment_id", id).Msg("failed to sync update comment")
				}
			}
		} else {
			if err := to.DeleteComment(ctx, id); err != nil {
				logger.Warn().Err(err).Stringer("comment_id", id).Msg("failed to sync delete comment")
			}
		}
	}

	return nil
}
