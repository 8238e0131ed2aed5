package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"APP_NAME", "APP_ENV", "APP_HOST", "APP_PORT", "HTTP_REQUEST_TIMEOUT_SECONDS", "APP_SEED_DEFAULT_TEMPLATE",
	"DB_DRIVER", "DB_DSN", "DB_RUN_MIGRATIONS", "REDIS_ADDR", "REDIS_DB", "REDIS_TEMPLATE_TTL_SECONDS",
	"AUTH_JWT_SECRET", "AUTH_PASSWORD_HASH", "AUTH_OWNER", "EVENTS_BROKER", "REMOTE_BASE_URL", "REMOTE_TIMEOUT_SECONDS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ticket-tracker", cfg.App.Name)
	assert.Equal(t, "127.0.0.1:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.True(t, cfg.App.SeedDefaultTemplate)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "tracker.db", cfg.Database.DSN)
	assert.True(t, cfg.Database.RunMigrations)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL())
	assert.Equal(t, "me", cfg.Auth.Owner)
	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, BrokerNone, cfg.Events.Broker)
	assert.False(t, cfg.Remote.Enabled())
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9000")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("APP_SEED_DEFAULT_TEMPLATE", "false")
	t.Setenv("DB_DRIVER", DriverPostgres)
	t.Setenv("DB_DSN", "postgres://tracker@localhost/tracker")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_TEMPLATE_TTL_SECONDS", "60")
	t.Setenv("AUTH_PASSWORD_HASH", "$2a$04$hash")
	t.Setenv("EVENTS_BROKER", "KAFKA")
	t.Setenv("REMOTE_BASE_URL", "http://tracker.local/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.App.Addr())
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.False(t, cfg.App.SeedDefaultTemplate)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, time.Minute, cfg.Redis.TTL())
	assert.True(t, cfg.Auth.Enabled())
	assert.Equal(t, BrokerKafka, cfg.Events.Broker)
	assert.Equal(t, "http://tracker.local", cfg.Remote.BaseURL)
	assert.True(t, cfg.Remote.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":   {"DB_DRIVER": "mysql"},
		"broker":   {"EVENTS_BROKER": "nats"},
		"redis db": {"REDIS_DB": "zero"},
		"prod secret": {
			"APP_ENV":            "production",
			"AUTH_PASSWORD_HASH": "$2a$04$hash",
		},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
