package vesteria

import (
	"flag"
	"fmt"

	"github.com/Tes-sudo/Vesteria/pkg/store/cqrs"
)

// Parse parses command line arguments and returns the command to execute and
// the application configuration. Flags override environment variables, which
// override built-in defaults.
func Parse(args []string) (Command, *Config, error) {
	flagSet := flag.NewFlagSet("vesteria", flag.ContinueOnError)

	var (
		syncDir      = flagSet.String("sync-direction", "forward", "Sync direction: forward (PG->SDB) or reverse (SDB->PG)")
		syncSince    = flagSet.String("sync-since", "", "Sync changes since this time (RFC3339)")
		syncUntil    = flagSet.String("sync-until", "", "Sync changes until this time (RFC3339)")
		mode         = flagSet.String("mode", getEnv("VESTERIA_MODE", "single"), "Migration mode: single, read_only, switching, reversed")
		port         = flagSet.String("port", getEnv("VESTERIA_PORT", "8080"), "Server port")
		postgresOnly = flagSet.Bool("postgres-only", false, "Use only PostgreSQL")
		surrealOnly  = flagSet.Bool("surreal-only", false, "Use only SurrealDB")
		readOnly     = flagSet.Bool("read-only", false, "Enable read-only mode")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	remainingArgs := flagSet.Args()
	if len(remainingArgs) == 0 {
		return nil, nil, fmt.Errorf(`subcommand required

Usage: vesteria [flags] <command>

Commands:
  run       Start the Vesteria server
  migrate   Run database migrations
  sync      Perform catch-up synchronization between backends

Examples:
  # Normal operation
  vesteria -postgres-only run                  # Legacy backend only
  vesteria -surreal-only run                   # New backend only

  # Migration window
  vesteria -mode single run                    # Both backends, PostgreSQL serving
  vesteria -mode read_only run                 # Writes frozen for final sync
  vesteria -mode switching run                 # Reads served from SurrealDB
  vesteria -mode reversed run                  # SurrealDB serving everything

  # Schema and data sync (flags come before the subcommand)
  vesteria migrate
  vesteria sync
  vesteria -sync-direction forward -sync-since 2024-01-01T00:00:00Z sync
  vesteria -sync-direction reverse sync`)
	}

	migrationMode, err := cqrs.ParseMode(*mode)
	if err != nil {
		return nil, nil, err
	}

	if *postgresOnly && *surrealOnly {
		return nil, nil, fmt.Errorf("-postgres-only and -surreal-only are mutually exclusive")
	}

	config := &Config{
		PostgresDSN:   getEnv("VESTERIA_POSTGRES_DSN", "host=localhost port=5432 user=vesteria password=vesteria dbname=vesteria sslmode=disable"),
		SurrealDBURL:  getEnv("VESTERIA_SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNS:   getEnv("VESTERIA_SURREALDB_NS", "vesteria"),
		SurrealDBDB:   getEnv("VESTERIA_SURREALDB_DB", "vesteria"),
		SurrealDBUser: getEnv("VESTERIA_SURREALDB_USER", "root"),
		SurrealDBPass: getEnv("VESTERIA_SURREALDB_PASS", "root"),
		MigrationMode: migrationMode,
		PostgresOnly:  *postgresOnly,
		SurrealOnly:   *surrealOnly,
		ReadOnly:      *readOnly,
		AuthSecret:    getEnv("VESTERIA_AUTH_SECRET", "dev-secret-do-not-use-in-production"),
		BaseURL:       getEnv("VESTERIA_BASE_URL", "http://localhost:8080"),
		ResendAPIKey:  getEnv("VESTERIA_RESEND_API_KEY", ""),
		MailFrom:      getEnv("VESTERIA_MAIL_FROM", "Vesteria <onboarding@resend.dev>"),
		ServerPort:    *port,
	}

	var cmd Command
	switch remainingArgs[0] {
	case "run":
		cmd = &RunCommand{}
	case "migrate":
		cmd = &MigrateCommand{}
	case "sync":
		if *syncDir != "forward" && *syncDir != "reverse" {
			return nil, nil, fmt.Errorf("invalid sync direction: %s (must be 'forward' or 'reverse')", *syncDir)
		}
		cmd = &SyncCommand{
			Direction: *syncDir,
			Since:     *syncSince,
			Until:     *syncUntil,
		}
	default:
		return nil, nil, fmt.Errorf("unknown command: %s\n\nValid commands: run, migrate, sync", remainingArgs[0])
	}

	return cmd, config, nil
}
