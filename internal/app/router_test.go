package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestRouterHealthz(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: testConfig(t),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterSecurityHeaders(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: testConfig(t),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: testConfig(t),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfigDefaults(t *testing.T) {
	cfg := testConfig(t)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "0 2 * * *", cfg.IntegrityCron)
	require.Equal(t, "30 2 * * *", cfg.IdempotencyCleanupCron)
	require.Equal(t, 168*time.Hour, cfg.IdempotencyRetention)
	require.False(t, cfg.IsProduction())

	cfg.AppEnv = "production"
	require.True(t, cfg.IsProduction())
}
