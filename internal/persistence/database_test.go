package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
)

func TestSQLiteDSN(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "file:tracker.db?"+sqliteDefaultParams, sqliteDSN("tracker.db"))
	assert.Equal(t, "file:/tmp/x.db?"+sqliteDefaultParams, sqliteDSN("file:/tmp/x.db"))
	assert.Equal(t, "tracker.db?_busy_timeout=1", sqliteDSN("tracker.db?_busy_timeout=1"))
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "tracker.db"),
		MaxOpenConns: 1,
	}

	db, err := Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	before, err := MigrationStatuses(ctx, db)
	require.NoError(t, err)
	require.NotEmpty(t, before)
	for _, st := range before {
		assert.False(t, st.Applied, st.Source)
	}

	require.NoError(t, RunMigrations(ctx, db, zap.NewNop()))
	// second run is a no-op
	require.NoError(t, RunMigrations(ctx, db, zap.NewNop()))

	after, err := MigrationStatuses(ctx, db)
	require.NoError(t, err)
	for _, st := range after {
		assert.True(t, st.Applied, st.Source)
	}

	var count int
	require.NoError(t, db.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets").Scan(&count))
	assert.Zero(t, count)
	assert.NoError(t, db.Ping(ctx))
}

func TestPingWithoutDatabase(t *testing.T) {
	t.Parallel()

	var db *Database
	assert.Error(t, db.Ping(context.Background()))
}
