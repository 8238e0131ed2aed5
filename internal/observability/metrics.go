package observability

import (
	"sort"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	startedAt     time.Time
	requestCount  map[requestKey]int64
	errorCount    map[errorKey]int64
	totalDuration map[requestKey]time.Duration
}

type requestKey struct {
	route  string
	method string
	status int
}

type errorKey struct {
	route  string
	method string
	code   string
}

// RouteStats is the per-route view returned by Snapshot.
type RouteStats struct {
	Route     string  `json:"route"`
	Method    string  `json:"method"`
	Status    int     `json:"status"`
	Count     int64   `json:"count"`
	AverageMs float64 `json:"average_ms"`
}

// ErrorStats counts rendered errors by route and error code.
type ErrorStats struct {
	Route  string `json:"route"`
	Method string `json:"method"`
	Code   string `json:"code"`
	Count  int64  `json:"count"`
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds int64        `json:"uptime_seconds"`
	Requests      []RouteStats `json:"requests"`
	Errors        []ErrorStats `json:"errors"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		startedAt:     time.Now(),
		requestCount:  make(map[requestKey]int64),
		errorCount:    make(map[errorKey]int64),
		totalDuration: make(map[requestKey]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := requestKey{route: route, method: method, status: status}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	key := errorKey{route: route, method: method, code: code}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the counters, sorted by route, method and status or code.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Requests: []RouteStats{}, Errors: []ErrorStats{}}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap.UptimeSeconds = int64(time.Since(m.startedAt).Seconds())
	for key, count := range m.requestCount {
		snap.Requests = append(snap.Requests, RouteStats{
			Route:     key.route,
			Method:    key.method,
			Status:    key.status,
			Count:     count,
			AverageMs: float64(m.totalDuration[key].Microseconds()) / 1000 / float64(count),
		})
	}
	sort.Slice(snap.Requests, func(i, j int) bool {
		a, b := snap.Requests[i], snap.Requests[j]
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Status < b.Status
	})

	for key, count := range m.errorCount {
		snap.Errors = append(snap.Errors, ErrorStats{Route: key.route, Method: key.method, Code: key.code, Count: count})
	}
	sort.Slice(snap.Errors, func(i, j int) bool {
		a, b := snap.Errors[i], snap.Errors[j]
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Code < b.Code
	})
	return snap
}
