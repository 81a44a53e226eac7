package vesteria

// Command represents a discrete application operation with its specific
// configuration. Implementations carry command-specific options as struct
// fields; shared configuration (databases, server, auth) lives in [Config].
//
// Current command implementations:
//   - [RunCommand]: HTTP server startup and operation
//   - [MigrateCommand]: database schema migration
//   - [SyncCommand]: catch-up synchronization between backends
type Command interface {
	// Name returns the command identifier used for routing. It matches
	// the CLI sub-command name.
	Name() string
}

// RunCommand starts the HTTP server. All configuration comes from [Config];
// the struct exists so run-specific options have somewhere to go later.
type RunCommand struct{}

// Name returns "run".
func (c *RunCommand) Name() string {
	return "run"
}

// MigrateCommand initializes or updates the database schema on whichever
// stores the configuration selects. For the CQRS configuration both stores
// are migrated so their schemas stay compatible for sync. Safe to run
// repeatedly.
type MigrateCommand struct{}

// Name returns "migrate".
func (c *MigrateCommand) Name() string {
	return "migrate"
}

// SyncCommand performs timestamp-based catch-up synchronization between the
// two backends. Forward sync (PostgreSQL to SurrealDB) is the usual case
// during migration; reverse sync supports rollback.
type SyncCommand struct {
	// Direction is "forward" (primary to secondary) or "reverse".
	Direction string

	// Since is the inclusive start of the sync window in RFC3339 format.
	// Empty defaults to 24 hours ago.
	Since string

	// Until is the exclusive end of the sync window in RFC3339 format.
	// Empty defaults to now.
	Until string
}

// Name returns "sync".
func (c *SyncCommand) Name() string {
	return "sync"
}
