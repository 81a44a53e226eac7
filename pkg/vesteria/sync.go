package vesteria

import (
	"context"
	"fmt"
	"time"
)

// Sync runs timestamp-based catch-up synchronization between the two
// backends for records modified inside [since, until). It only works in the
// dual-backend configuration; a single-backend process has nothing to sync
// against.
//
// Direction "forward" copies PostgreSQL changes into SurrealDB, the normal
// flow while PostgreSQL is still the system of record. Direction "reverse"
// copies the other way, for rollback after writes moved to SurrealDB.
func (a *App) Sync(ctx context.Context, direction string, since, until time.Time) error {
	cs := a.cqrsStore()
	if cs == nil {
		return fmt.Errorf("sync requires both backends; run without -postgres-only or -surreal-only")
	}

	a.logger.Info().
		Str("direction", direction).
		Time("since", since).
		Time("until", until).
		Msg("starting catch-up sync")

	var err error
	switch direction {
	case "forward":
		err = cs.SyncMissedUpdates(ctx, since, until)
	case "reverse":
		err = cs.ReverseSyncMissedUpdates(ctx, since, until)
	default:
		return fmt.Errorf("invalid sync direction: %s (must be 'forward' or 'reverse')", direction)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	a.logger.Info().Str("direction", direction).Msg("catch-up sync complete")
	return nil
}
