package api

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuyPham171-hub/goldsight-web/internal/api/handlers"
	"github.com/HuyPham171-hub/goldsight-web/internal/forecast"
	"github.com/HuyPham171-hub/goldsight-web/pkg/logger"
	"github.com/HuyPham171-hub/goldsight-web/pkg/metrics"
	"github.com/HuyPham171-hub/goldsight-web/pkg/redis"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	rec := metrics.NewWithRegistry(reg, reg)

	engine := forecast.NewEngine(forecast.NewRegistry(zerolog.Nop()), zerolog.Nop(), forecast.WithMetrics(rec))
	svc := forecast.NewService(engine, forecast.NewCSVHistory("testdata/missing.csv"), forecast.ServiceConfig{}, zerolog.Nop())

	return NewRouter(Dependencies{
		Forecast: handlers.NewForecastHandler(svc, "gru_multivariate", logger.Nop()),
		Health:   handlers.NewHealthHandler(nil),
		Metrics:  rec,
		Limiter:  redis.NewRateLimiter(redis.Disabled(), "test"),
		Logger:   logger.Nop(),
	})
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouter_MetricsRecordsRouteTemplate(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/forecast/nope/latest?horizon=7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no store configured")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/forecast/{model}/latest"`)
}

func TestRouter_UnknownModelIs404(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/forecast",
		strings.NewReader(`{"model":"missing","horizon":7}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("X-RateLimit-Remaining"), "disabled limiter reports the full budget")
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/api/forecast", "/api/evaluate"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
		assert.JSONEq(t, `{"error":"method not allowed"}`, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/forecast/gru_multivariate/latest", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown paths stay 404")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClientIP(t *testing.T) {
	_, proxyNet, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)
	proxies := []*net.IPNet{proxyNet}

	t.Run("direct client ignores forwarded header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.4:5555"
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		assert.Equal(t, "198.51.100.4", clientIP(req, proxies))
		assert.Equal(t, "198.51.100.4", clientIP(req, nil))
	})

	t.Run("no proxies configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		assert.Equal(t, "10.1.2.3", clientIP(req, nil))
	})

	t.Run("trusted proxy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		assert.Equal(t, "10.1.2.3", clientIP(req, proxies), "no header")

		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		assert.Equal(t, "203.0.113.9", clientIP(req, proxies))
	})

	t.Run("spoofed leftmost entry is skipped", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		req.Header.Set("X-Forwarded-For", "1.2.3.4, 203.0.113.9")
		assert.Equal(t, "203.0.113.9", clientIP(req, proxies))
	})

	t.Run("garbage header falls back to proxy address", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		req.Header.Set("X-Forwarded-For", "not-an-ip")
		assert.Equal(t, "10.1.2.3", clientIP(req, proxies))
	})
}
