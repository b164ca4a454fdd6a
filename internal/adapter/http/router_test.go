package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/farmledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/farmledger/internal/adapter/http/middleware"
	"github.com/iho/farmledger/internal/adapter/journal"
	"github.com/iho/farmledger/internal/infrastructure/metrics"
)

type emptyJournal struct{}

func (emptyJournal) Recent(int) ([]journal.TickRecord, error) { return nil, nil }

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	registry := prometheus.NewRegistry()
	cfg := RouterConfig{
		HealthHandler: handler.NewHealthHandler(handler.Check{
			Name: "postgres",
			Ping: func(context.Context) error { return nil },
		}),
		TickHandler: handler.NewTickHandler(emptyJournal{}),
		Metrics:     metrics.NewWithRegistry(registry),
		Gatherer:    registry,
		Logger:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_ReadinessReportsFailure(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.HealthHandler = handler.NewHealthHandler(handler.Check{
			Name: "redis",
			Ping: func(context.Context) error { return errors.New("dial tcp: refused") },
		})
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewRouter_MetricsExposeRequests(t *testing.T) {
	router := NewRouter(newRouterConfig())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `farmledger_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "1.2.3.4:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestNewRouter_RegistersOpsRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	require.True(t, ok, "router does not implement chi.Router")

	seen := map[string]bool{}
	require.NoError(t, chi.Walk(chiRoutes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}))

	for _, route := range []string{"GET /health", "GET /ready", "GET /metrics", "GET /ticks"} {
		assert.True(t, seen[route], "expected route %s", route)
	}
}
