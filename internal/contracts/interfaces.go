package contracts

import (
	"context"
	"time"
)

// HistoryProvider 원천 시계열 제공
// ⭐ SSOT: 수집 계층(외부)과 예측 파이프라인의 경계
type HistoryProvider interface {
	LoadObservations(ctx context.Context, features []string, from, to time.Time) ([]SourceSeries, error)
}

// ForecastStore 예측 결과 및 평가 결과 저장소
// ⭐ SSOT: 예측 결과 영속화 인터페이스
type ForecastStore interface {
	SaveForecast(ctx context.Context, result *ForecastResult) error
	GetLatestForecast(ctx context.Context, modelID string, horizon Horizon) (*ForecastResult, error)
	SaveEvaluation(ctx context.Context, report EvaluationReport) error
	GetLatestEvaluation(ctx context.Context, modelID string) (*EvaluationReport, error)
}
