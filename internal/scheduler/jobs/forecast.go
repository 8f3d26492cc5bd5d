package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
	"github.com/HuyPham171-hub/goldsight-web/pkg/logger"
)

// Forecaster 일일 예측 실행 주체 (forecast.Service)
type Forecaster interface {
	Forecast(ctx context.Context, modelID string, horizon contracts.Horizon) (*contracts.ForecastResult, error)
}

// ForecastJob runs the daily forecast for every model × horizon
// Schedule: 06:30 UTC (after the US close data lands)
type ForecastJob struct {
	forecaster Forecaster
	models     []string
	horizons   []contracts.Horizon
	logger     *logger.Logger
}

// NewForecastJob creates a new forecast job
func NewForecastJob(f Forecaster, models []string, horizons []contracts.Horizon, log *logger.Logger) *ForecastJob {
	return &ForecastJob{
		forecaster: f,
		models:     models,
		horizons:   horizons,
		logger:     log,
	}
}

// Name returns the job name
func (j *ForecastJob) Name() string {
	return "daily_forecast"
}

// Schedule returns the cron schedule (06:30 daily, with seconds)
func (j *ForecastJob) Schedule() string {
	return "0 30 6 * * *"
}

// Run forecasts every pair; one failing pair does not stop the rest
func (j *ForecastJob) Run(ctx context.Context) error {
	j.logger.WithFields(map[string]interface{}{
		"models":   len(j.models),
		"horizons": len(j.horizons),
	}).Info("Starting scheduled forecast")

	var errs []error
	done := 0
	for _, model := range j.models {
		for _, h := range j.horizons {
			if err := ctx.Err(); err != nil {
				return err
			}

			result, err := j.forecaster.Forecast(ctx, model, h)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", model, h, err))
				j.logger.WithFields(map[string]interface{}{
					"model":   model,
					"horizon": h.String(),
					"error":   err.Error(),
				}).Warn("Forecast failed")
				continue
			}

			done++
			j.logger.WithFields(map[string]interface{}{
				"model":       model,
				"horizon":     h.String(),
				"run_id":      result.RunID,
				"final_value": result.Points[len(result.Points)-1].Value,
			}).Info("Forecast stored")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"succeeded": done,
		"failed":    len(errs),
	}).Info("Scheduled forecast finished")

	return errors.Join(errs...)
}
