package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/mattn/go-sqlite3"    // sqlite3 driver
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
)

const sqliteDefaultParams = "_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on"

// Database wraps a database/sql handle together with the driver it was opened with.
type Database struct {
	DB     *sql.DB
	Driver string
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Database, error) {
	dsn := cfg.DSN
	if cfg.Driver == config.DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	logger.Info("connected to database", zap.String("driver", cfg.Driver))
	return &Database{DB: db, Driver: cfg.Driver}, nil
}

// sqliteDSN appends the connection parameters every sqlite handle needs unless the
// caller already supplied query parameters.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	return dsn + "?" + sqliteDefaultParams
}

// Ping verifies database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	if d == nil || d.DB == nil {
		return fmt.Errorf("database not configured")
	}
	return d.DB.PingContext(ctx)
}

// Close releases the connection pool.
func (d *Database) Close() {
	if d != nil && d.DB != nil {
		_ = d.DB.Close()
	}
}
