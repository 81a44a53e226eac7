package vesteria

import (
	"context"
	"fmt"
	"time"
)

// Main is the entry point for the vesteria application. It parses the given
// arguments, builds the application, and executes the selected command. It
// is callable from tests without building the binary; the context drives
// graceful shutdown.
//
// Environment variables (all optional, see Parse for defaults):
//
//	VESTERIA_POSTGRES_DSN      PostgreSQL connection string
//	VESTERIA_SURREALDB_URL     SurrealDB websocket URL
//	VESTERIA_SURREALDB_NS      SurrealDB namespace
//	VESTERIA_SURREALDB_DB      SurrealDB database
//	VESTERIA_SURREALDB_USER    SurrealDB username
//	VESTERIA_SURREALDB_PASS    SurrealDB password
//	VESTERIA_MODE              migration mode for the CQRS configuration
//	VESTERIA_PORT              HTTP listen port
//	VESTERIA_AUTH_SECRET       signing secret for magic-link tokens
//	VESTERIA_BASE_URL          public origin embedded in magic links
//	VESTERIA_RESEND_API_KEY    Resend API key; empty selects the log mailer
//	VESTERIA_MAIL_FROM         sender address for outgoing mail
//
// Migration phases, in order: run both backends in -mode single while
// background sync copies data across, freeze writes with -mode read_only for
// the final sync, validate reads with -mode switching, hand writes over with
// -mode reversed, then finish on -surreal-only.
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	app, err := New(config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *MigrateCommand:
		if err := app.Migrate(ctx, c); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case *RunCommand:
		if err := app.Run(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case *SyncCommand:
		since, err := ParseTime(c.Since, time.Now().Add(-24*time.Hour))
		if err != nil {
			return fmt.Errorf("invalid since time: %w", err)
		}
		until, err := ParseTime(c.Until, time.Now())
		if err != nil {
			return fmt.Errorf("invalid until time: %w", err)
		}

		if err := app.Sync(ctx, c.Direction, since, until); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}

	return nil
}

// ParseTime parses an RFC3339 time string, returning defaultTime when the
// string is empty. Sync commands use it so 'since' can default to a lookback
// window and 'until' to now.
func ParseTime(timeStr string, defaultTime time.Time) (time.Time, error) {
	if timeStr == "" {
		return defaultTime, nil
	}
	return time.Parse(time.RFC3339, timeStr)
}
