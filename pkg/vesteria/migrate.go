package vesteria

import (
	"context"
	"fmt"
)

// Migrate initializes or updates the schema on every configured backend. For
// the dual-backend configuration both stores are migrated so catch-up sync
// always finds compatible shapes on each side. Safe to run repeatedly.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	a.logger.Info().Msg("running schema migration")

	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	a.logger.Info().Msg("schema migration complete")
	return nil
}
