package prospect

import (
	"context"
	"fmt"
)

// Main is the main entry point for the prospect application.
// It takes a context for cancellation and command line arguments, then
// executes the appropriate command. Tests call it directly without building
// the binary; the context enables graceful shutdown in both settings.
//
// # Command Line Usage
//
//	prospect run                         # Serve the API with PostgreSQL
//	prospect -store surrealdb run        # Serve with SurrealDB
//	prospect -store memory run           # Serve with the in-memory store
//	prospect migrate                     # Apply schema migrations
//
// # Environment Variables
//
//	POSTGRES_DSN          - PostgreSQL connection string
//	SURREALDB_URL         - SurrealDB WebSocket URL (default: ws://localhost:8000/rpc)
//	SURREALDB_NS          - SurrealDB namespace (default: prospect)
//	SURREALDB_DB          - SurrealDB database (default: prospect)
//	SURREALDB_USER        - SurrealDB username (default: root)
//	SURREALDB_PASS        - SurrealDB password (default: root)
//	AZURE_CLIENT_ID       - Azure app registration for OneDrive features
//	AZURE_CLIENT_SECRET   - Azure app secret; unset disables OneDrive features
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
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}

	return nil
}
