package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
	"github.com/HuyPham171-hub/goldsight-web/pkg/logger"
)

// Evaluator 백테스트 + σ 갱신 주체 (forecast.Service)
type Evaluator interface {
	Evaluate(ctx context.Context, modelID string, holdout int) (*contracts.EvaluationReport, error)
}

// EvaluationJob refreshes the residual std of every model weekly
// 밴드 폭은 여기서 갱신된 σ를 사용
type EvaluationJob struct {
	evaluator Evaluator
	models    []string
	holdout   int
	logger    *logger.Logger
}

// NewEvaluationJob creates a new evaluation job
func NewEvaluationJob(e Evaluator, models []string, holdout int, log *logger.Logger) *EvaluationJob {
	return &EvaluationJob{
		evaluator: e,
		models:    models,
		holdout:   holdout,
		logger:    log,
	}
}

// Name returns the job name
func (j *EvaluationJob) Name() string {
	return "weekly_evaluation"
}

// Schedule returns the cron schedule (Sunday 03:00, with seconds)
func (j *EvaluationJob) Schedule() string {
	return "0 0 3 * * 0"
}

// Run evaluates every model over the holdout window
func (j *EvaluationJob) Run(ctx context.Context) error {
	var errs []error
	for _, model := range j.models {
		if err := ctx.Err(); err != nil {
			return err
		}

		report, err := j.evaluator.Evaluate(ctx, model, j.holdout)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", model, err))
			j.logger.WithFields(map[string]interface{}{
				"model": model,
				"error": err.Error(),
			}).Warn("Evaluation failed")
			continue
		}

		j.logger.WithFields(map[string]interface{}{
			"model":        model,
			"samples":      report.Samples,
			"r2":           fmt.Sprintf("%.4f", report.RSquared),
			"rmse":         fmt.Sprintf("%.2f", report.RMSE),
			"residual_std": fmt.Sprintf("%.2f", report.ResidualStd),
		}).Info("Model evaluated")
	}

	return errors.Join(errs...)
}
