package api

import (
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/HuyPham171-hub/goldsight-web/internal/api/handlers"
	"github.com/HuyPham171-hub/goldsight-web/pkg/logger"
	"github.com/HuyPham171-hub/goldsight-web/pkg/metrics"
	"github.com/HuyPham171-hub/goldsight-web/pkg/redis"
)

// Dependencies 라우터 구성 요소
type Dependencies struct {
	Forecast *handlers.ForecastHandler
	Health   *handlers.HealthHandler
	Metrics  *metrics.Recorder
	Limiter  *redis.RateLimiter // nil이면 레이트 리밋 없음
	Logger   *logger.Logger

	// TrustedProxies X-Forwarded-For를 신뢰할 프록시 (비우면 RemoteAddr만 사용)
	TrustedProxies []*net.IPNet
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps Dependencies) http.Handler {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/health", deps.Health.Check).Methods(http.MethodGet)
	r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)

	limit := func(cfg redis.RateLimitConfig, h http.HandlerFunc) http.Handler {
		return rateLimitMiddleware(deps.Limiter, cfg, deps.TrustedProxies, deps.Logger)(h)
	}

	// Forecast endpoints
	// 서브라우터 없이 전체 경로로 등록 (경로 일치 + 메서드 불일치 시 405)
	r.HandleFunc("/api/models", deps.Forecast.ListModels).Methods(http.MethodGet)
	r.Handle("/api/forecast", limit(redis.ForecastAPIRateLimit, deps.Forecast.CreateForecast)).Methods(http.MethodPost)
	r.HandleFunc("/api/forecast/{model}/latest", deps.Forecast.GetLatest).Methods(http.MethodGet)
	r.Handle("/api/evaluate", limit(redis.EvaluateAPIRateLimit, deps.Forecast.Evaluate)).Methods(http.MethodPost)

	// Apply middleware
	r.Use(loggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(recoveryMiddleware(deps.Logger))

	return r
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}
