package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticket-tracker/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger(config.LoggerConfig{Level: "DEBUG"}, config.AppConfig{Name: "tracker", Env: "test"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "nonsense"}, config.AppConfig{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "warn", Format: "console"}, config.AppConfig{Name: "tracker", Env: "production"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestMetricsSnapshot(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordRequest("/api/tickets/:id", "GET", 200, 2*time.Millisecond)
	m.RecordRequest("/api/tickets/:id", "GET", 200, 4*time.Millisecond)
	m.RecordRequest("/api/tickets", "POST", 400, time.Millisecond)
	m.RecordError("/api/tickets", "POST", "VALIDATION_FAILED")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 2)
	assert.Equal(t, RouteStats{Route: "/api/tickets", Method: "POST", Status: 400, Count: 1, AverageMs: 1}, snap.Requests[0])
	assert.Equal(t, RouteStats{Route: "/api/tickets/:id", Method: "GET", Status: 200, Count: 2, AverageMs: 3}, snap.Requests[1])
	assert.Equal(t, []ErrorStats{{Route: "/api/tickets", Method: "POST", Code: "VALIDATION_FAILED", Count: 1}}, snap.Errors)

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, 0)
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestMetricsSnapshotOrdersByFields(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordRequest("/api/tickets/:id", "PUT", 200, time.Millisecond)
	m.RecordRequest("/api/tickets/:id", "GET", 404, time.Millisecond)
	m.RecordRequest("/api/tickets/:id", "GET", 200, time.Millisecond)
	m.RecordRequest("/api/tickets", "POST", 1000, time.Millisecond)
	m.RecordRequest("/api/tickets", "POST", 201, time.Millisecond)
	m.RecordRequest("/api/tickets-archive", "GET", 200, time.Millisecond)
	m.RecordError("/api/tickets/:id", "GET", "NOT_FOUND")
	m.RecordError("/api/tickets", "POST", "VALIDATION_FAILED")
	m.RecordError("/api/tickets", "POST", "DUPLICATE")
	m.RecordError("/api/tickets", "DELETE", "NOT_FOUND")

	type requestRow struct {
		Route  string
		Method string
		Status int
	}
	requests := []requestRow{}
	for _, r := range m.Snapshot().Requests {
		requests = append(requests, requestRow{r.Route, r.Method, r.Status})
	}
	assert.Equal(t, []requestRow{
		{"/api/tickets", "POST", 201},
		{"/api/tickets", "POST", 1000},
		{"/api/tickets-archive", "GET", 200},
		{"/api/tickets/:id", "GET", 200},
		{"/api/tickets/:id", "GET", 404},
		{"/api/tickets/:id", "PUT", 200},
	}, requests)

	assert.Equal(t, []ErrorStats{
		{Route: "/api/tickets", Method: "DELETE", Code: "NOT_FOUND", Count: 1},
		{Route: "/api/tickets", Method: "POST", Code: "DUPLICATE", Count: 1},
		{Route: "/api/tickets", Method: "POST", Code: "VALIDATION_FAILED", Count: 1},
		{Route: "/api/tickets/:id", Method: "GET", Code: "NOT_FOUND", Count: 1},
	}, m.Snapshot().Errors)
}

func TestRequestLoggerKeepsValuesAfterContextReuse(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))

	paths := []string{"/missing-aaaa", "/missing-bbbb", "/missing-cccc"}
	for _, path := range paths {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	}

	entries := logs.All()
	require.Len(t, entries, len(paths))
	for i, entry := range entries {
		assert.Equal(t, paths[i], entry.ContextMap()["path"])
		assert.Equal(t, "GET", entry.ContextMap()["method"])
	}

	routes := []string{}
	for _, r := range metrics.Snapshot().Requests {
		routes = append(routes, r.Route)
		assert.Equal(t, int64(1), r.Count)
	}
	assert.Equal(t, paths, routes)
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/items/42", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "/items/42", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(204), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)

	snap := metrics.Snapshot()
	routes := []string{}
	for _, r := range snap.Requests {
		routes = append(routes, r.Route)
	}
	assert.Contains(t, routes, "/items/:id")
}
