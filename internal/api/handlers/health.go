package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger 의존 서비스 연결 확인 (database.DB, redis.Client)
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 서비스 상태 확인
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler creates a new health handler (nil pinger는 제외)
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	kept := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			kept[name] = p
		}
	}
	return &HealthHandler{checks: kept}
}

// Check returns service health
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			results[name] = err.Error()
			status = "degraded"
			continue
		}
		results[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]interface{}{
		"status":  status,
		"service": "goldsight-api",
		"checks":  results,
	})
}
