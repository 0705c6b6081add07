package prospect

import (
	"context"
	"fmt"
)

// migrator is implemented by store backends that need schema setup before
// first use. The in-memory store does not; the others do.
type migrator interface {
	Migrate(ctx context.Context) error
}

// Migrate performs schema migration on the configured store. PostgreSQL runs
// GORM AutoMigrate for tables, indexes and constraints; SurrealDB creates
// tables implicitly on first insert so its migration is a no-op. Safe to run
// repeatedly: existing schema elements are updated, never dropped.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	m, ok := a.store.(migrator)
	if !ok {
		a.logger.Info().Str("store", a.config.Store).Msg("store needs no migration")
		return nil
	}
	a.logger.Info().Msg("running database migrations")
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.logger.Info().Msg("migrations completed")
	return nil
}
