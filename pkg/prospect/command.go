package prospect

// Command represents a discrete application operation with its specific
// configuration. Commands are created by Parse from command-line arguments
// and executed by [Main] through the matching method on [App].
//
// Current command implementations:
//   - [RunCommand]: HTTP server startup and operation
//   - [MigrateCommand]: database schema migration
type Command interface {
	// Name returns the command identifier used for routing. The returned
	// name matches the CLI sub-command name.
	Name() string
}

// MigrateCommand initializes or updates the database schema to match the
// current data model. The behavior depends on the configured store:
// PostgreSQL runs GORM AutoMigrate DDL, SurrealDB needs no setup because it
// is schemaless, and the in-memory store has nothing to migrate.
//
// The command is idempotent and safe to run before every deployment.
type MigrateCommand struct {
	// Currently empty; all configuration comes from App.Config.
}

// Name returns the command name for routing.
func (c *MigrateCommand) Name() string {
	return "migrate"
}

// RunCommand starts the HTTP server serving the complete REST API: auth,
// businesses, contacts, notes, documents, tasks and news articles. The
// server runs until its context is cancelled, then shuts down gracefully.
type RunCommand struct {
	// Currently empty; all configuration comes from App.Config.
}

// Name returns the command name for routing.
func (c *RunCommand) Name() string {
	return "run"
}
