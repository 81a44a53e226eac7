// Package vesteria wires the posting service together: configuration, store
// selection, HTTP routing, magic-link authentication, and the live
// subscription hub.
//
// The service is in the middle of a backend migration from PostgreSQL to
// SurrealDB. Which backend serves a given process is decided exactly once,
// here, at composition time; handlers only ever see the
// [github.com/Tes-sudo/Vesteria/pkg/store.Store] interface.
package vesteria

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/Tes-sudo/Vesteria/pkg/mail"
	"github.com/Tes-sudo/Vesteria/pkg/store"
	"github.com/Tes-sudo/Vesteria/pkg/store/cqrs"
	"github.com/Tes-sudo/Vesteria/pkg/store/postgres"
	"github.com/Tes-sudo/Vesteria/pkg/store/surrealdb"
)

// Config holds application configuration assembled from flags and
// environment variables.
type Config struct {
	// Database configuration
	PostgresDSN   string
	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	// Mode configuration
	MigrationMode cqrs.MigrationMode
	PostgresOnly  bool
	SurrealOnly   bool
	ReadOnly      bool

	// Auth configuration. AuthSecret signs magic-link tokens; BaseURL is
	// the public origin embedded in emailed links.
	AuthSecret string
	BaseURL    string

	// Mail configuration. With an empty ResendAPIKey the log-only mailer
	// is used and magic links appear in the server log.
	ResendAPIKey string
	MailFrom     string

	// Server configuration
	ServerPort string
}

// App holds the application state.
type App struct {
	store    store.Store
	config   *Config
	logger   zerolog.Logger
	mailer   mail.Mailer
	hub      *Hub
	readOnly bool
}

// New creates an application instance, connecting to whichever backends the
// configuration selects: SurrealDB only, PostgreSQL only, or both behind the
// CQRS migration store.
func New(config *Config) (*App, error) {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "vesteria").Logger()

	var appStore store.Store
	var err error

	if config.SurrealOnly {
		appStore, err = surrealdb.NewSurrealStore(
			config.SurrealDBURL,
			config.SurrealDBNS,
			config.SurrealDBDB,
			config.SurrealDBUser,
			config.SurrealDBPass,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		logger.Info().Msg("connected to SurrealDB")
	} else if config.PostgresOnly {
		appStore, err = postgres.NewPostgresStore(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		pgStore, err := postgres.NewPostgresStore(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		logger.Info().Msg("connected to PostgreSQL")

		sdbStore, err := surrealdb.NewSurrealStore(
			config.SurrealDBURL,
			config.SurrealDBNS,
			config.SurrealDBDB,
			config.SurrealDBUser,
			config.SurrealDBPass,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		logger.Info().Msg("connected to SurrealDB")

		appStore = cqrs.NewCQRSStore(pgStore, sdbStore, config.MigrationMode, logger)
		logger.Info().Str("mode", string(config.MigrationMode)).Msg("using CQRS store")
	}

	var mailer mail.Mailer
	if config.ResendAPIKey != "" {
		mailer = mail.NewResendMailer(config.ResendAPIKey, config.MailFrom)
	} else {
		mailer = mail.NewLogMailer(logger)
	}

	return newApp(config, appStore, mailer, logger), nil
}

// NewWithStore creates an application around an already-constructed store.
// Used by tests to run the full HTTP surface against the in-memory store.
func NewWithStore(config *Config, s store.Store, mailer mail.Mailer) *App {
	logger := zerolog.Nop()
	return newApp(config, s, mailer, logger)
}

func newApp(config *Config, s store.Store, mailer mail.Mailer, logger zerolog.Logger) *App {
	app := &App{
		config:   config,
		logger:   logger,
		mailer:   mailer,
		hub:      NewHub(logger),
		readOnly: config.ReadOnly,
	}
	app.store = store.NewReadOnlyStore(s, app.IsReadOnly)
	return app
}

// Close closes the application and its resources.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store returns the underlying store (useful for testing).
func (a *App) Store() store.Store {
	return a.store
}

// SetReadOnly toggles the runtime read-only state checked by the store
// wrapper on every write. Flip it on before a final catch-up sync, off once
// the cutover is complete.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly = readOnly
	a.logger.Info().Bool("read_only", readOnly).Msg("application read-only mode changed")
}

// IsReadOnly returns whether the application is currently read-only.
func (a *App) IsReadOnly() bool {
	return a.readOnly
}

// getEnv retrieves an environment variable with a fallback default. Empty
// values are treated the same as unset, which is the safer reading in
// container environments where empty strings get exported by accident.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
