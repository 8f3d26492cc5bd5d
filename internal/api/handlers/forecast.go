package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
	"github.com/HuyPham171-hub/goldsight-web/internal/forecast"
	"github.com/HuyPham171-hub/goldsight-web/pkg/logger"
)

// ForecastService 핸들러가 사용하는 예측 서비스 (forecast.Service)
type ForecastService interface {
	Models() []forecast.ModelInfo
	Forecast(ctx context.Context, modelID string, horizon contracts.Horizon) (*contracts.ForecastResult, error)
	Latest(ctx context.Context, modelID string, horizon contracts.Horizon) (*contracts.ForecastResult, error)
	Evaluate(ctx context.Context, modelID string, holdout int) (*contracts.EvaluationReport, error)
	Compare(ctx context.Context, modelIDs []string, holdout int) ([]contracts.EvaluationReport, error)
}

// ForecastHandler handles forecast API endpoints
// ⭐ SSOT: Forecast API 핸들러는 이 구조체에서만
type ForecastHandler struct {
	svc          ForecastService
	defaultModel string
	logger       *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(svc ForecastService, defaultModel string, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{
		svc:          svc,
		defaultModel: defaultModel,
		logger:       log,
	}
}

// ForecastRequest 예측 요청
type ForecastRequest struct {
	Model   string `json:"model" validate:"omitempty,max=64"`
	Horizon int    `json:"horizon" validate:"required,oneof=7 21 30"`
}

// EvaluateRequest 평가 요청 (모델 1개면 σ 갱신, 여러 개면 비교)
type EvaluateRequest struct {
	Models  []string `json:"models" validate:"omitempty,dive,required,max=64"`
	Holdout int      `json:"holdout" validate:"omitempty,gt=0,lte=365"`
}

// ListModels returns registered models
// GET /api/models
func (h *ForecastHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"models": h.svc.Models(),
	})
}

// CreateForecast runs a forecast on the latest history
// POST /api/forecast
func (h *ForecastHandler) CreateForecast(w http.ResponseWriter, r *http.Request) {
	var req ForecastRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Model == "" {
		req.Model = h.defaultModel
	}

	result, err := h.svc.Forecast(r.Context(), req.Model, contracts.Horizon(req.Horizon))
	if err != nil {
		h.fail(w, err, "Forecast failed", map[string]interface{}{
			"model":   req.Model,
			"horizon": req.Horizon,
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetLatest returns the most recent stored forecast
// GET /api/forecast/{model}/latest?horizon=7
func (h *ForecastHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	model := mux.Vars(r)["model"]

	raw := r.URL.Query().Get("horizon")
	if raw == "" {
		raw = contracts.Horizon7D.String()
	}
	horizon, err := contracts.ParseHorizon(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Latest(r.Context(), model, horizon)
	if err != nil {
		h.fail(w, err, "Latest forecast lookup failed", map[string]interface{}{
			"model":   model,
			"horizon": horizon.Days(),
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Evaluate backtests one model, or compares several
// POST /api/evaluate
func (h *ForecastHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if len(req.Models) == 1 {
		report, err := h.svc.Evaluate(r.Context(), req.Models[0], req.Holdout)
		if err != nil {
			h.fail(w, err, "Evaluation failed", map[string]interface{}{"model": req.Models[0]})
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"reports": []contracts.EvaluationReport{*report},
		})
		return
	}

	reports, err := h.svc.Compare(r.Context(), req.Models, req.Holdout)
	if err != nil {
		h.fail(w, err, "Comparison failed", map[string]interface{}{"models": req.Models})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
	})
}

func (h *ForecastHandler) fail(w http.ResponseWriter, err error, msg string, fields map[string]interface{}) {
	status := respondServiceError(w, err)
	entry := h.logger.WithError(err).WithFields(fields).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error(msg)
		return
	}
	entry.Warn(msg)
}
