package persistence

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MigrationStatus describes one migration as reported by the status command.
type MigrationStatus struct {
	Version int64
	Source  string
	Applied bool
}

func newProvider(db *Database) (*goose.Provider, error) {
	if db == nil || db.DB == nil {
		return nil, fmt.Errorf("database not configured")
	}
	dialect := goose.DialectSQLite3
	if db.Driver == config.DriverPostgres {
		dialect = goose.DialectPostgres
	}
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db.DB, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, nil
}

// RunMigrations applies every pending embedded migration.
func RunMigrations(ctx context.Context, db *Database, logger *zap.Logger) error {
	provider, err := newProvider(db)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, res := range results {
		logger.Info("applied migration",
			zap.Int64("version", res.Source.Version),
			zap.String("file", res.Source.Path),
			zap.Duration("duration", res.Duration),
		)
	}
	logger.Info("migrations applied", zap.Int("count", len(results)))
	return nil
}

// MigrationStatuses lists every embedded migration and whether it has been applied.
func MigrationStatuses(ctx context.Context, db *Database) ([]MigrationStatus, error) {
	provider, err := newProvider(db)
	if err != nil {
		return nil, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, MigrationStatus{
			Version: st.Source.Version,
			Source:  st.Source.Path,
			Applied: st.State == goose.StateApplied,
		})
	}
	return out, nil
}
