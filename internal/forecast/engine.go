package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
	"github.com/HuyPham171-hub/goldsight-web/internal/evaluation"
	"github.com/HuyPham171-hub/goldsight-web/pkg/metrics"
)

// Engine 자기회귀 다단계 예측 엔진
// ⭐ SSOT: 스케일 → 윈도우 → 예측 → 역변환 순서는 여기서만
//
// 한 번의 호출은 동기적으로 실행되며 자체 윈도우/결과만 사용한다.
// 취소는 스텝 사이에서만 확인한다.
type Engine struct {
	registry  *Registry
	aligner   *Aligner
	windows   *WindowBuilder
	exogenous ExogenousStrategy
	band      BandEstimator
	metrics   *metrics.Recorder
	log       zerolog.Logger
	now       func() time.Time
}

// EngineOption 엔진 옵션
type EngineOption func(*Engine)

// WithExogenousStrategy 외생 변수 정책 교체
func WithExogenousStrategy(s ExogenousStrategy) EngineOption {
	return func(e *Engine) {
		e.exogenous = s
	}
}

// WithBandEstimator 밴드 추정기 교체
func WithBandEstimator(b BandEstimator) EngineOption {
	return func(e *Engine) {
		e.band = b
	}
}

// WithMetrics 지표 기록기 설정
func WithMetrics(m *metrics.Recorder) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock 시간 함수 교체 (테스트용)
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine 새 예측 엔진 생성
func NewEngine(registry *Registry, log zerolog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:  registry,
		aligner:   NewAligner(log),
		windows:   NewWindowBuilder(),
		exogenous: HoldLastStrategy{},
		band:      NewResidualBand(DefaultBandZ),
		log:       log.With().Str("component", "forecast.engine").Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry 모델 레지스트리
func (e *Engine) Registry() *Registry {
	return e.registry
}

// prepared 모델 입력 준비 결과
type prepared struct {
	handle *Handle
	frame  *contracts.Frame // 모델 피처 순서로 재배치된 프레임
	scaled [][]float64      // 완전한 꼬리 행들의 스케일 값
	offset int              // scaled[0]에 해당하는 frame 행 위치
}

// prepare 피처 재배치 → 완전한 꼬리 행 스케일
// 꼬리 완전 행이 lookback+extra 미만이면 ErrInsufficientHistory
func (e *Engine) prepare(h *Handle, history *contracts.Frame, extra int) (*prepared, error) {
	if history == nil || history.Len() == 0 {
		return nil, fmt.Errorf("%w: no history", contracts.ErrEmptySeries)
	}
	if err := history.Validate(); err != nil {
		return nil, err
	}

	frame, err := history.Project(h.Features())
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", h.ID(), err)
	}
	frame.Target = h.Target()

	offset, err := e.aligner.CompleteTailStart(frame, h.Lookback()+extra)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", h.ID(), err)
	}

	complete := frame.Len() - offset
	scaled := make([][]float64, complete)
	for i := range scaled {
		row, err := h.FeatureScaler().Transform(frame.Features, frame.Rows[offset+i])
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", h.ID(), err)
		}
		scaled[i] = row
	}

	e.log.Debug().
		Str("stage", contracts.StageScale.String()).
		Str("model", h.ID()).
		Int("complete_rows", complete).
		Msg("history scaled")

	return &prepared{handle: h, frame: frame, scaled: scaled, offset: offset}, nil
}

// GenerateForecast horizon일 앞까지 자기회귀 예측
// 실패 시 부분 결과를 반환하지 않음
func (e *Engine) GenerateForecast(ctx context.Context, modelID string, history *contracts.Frame, horizon contracts.Horizon) (result *contracts.ForecastResult, err error) {
	start := e.now()
	defer func() {
		e.metrics.RecordForecast(modelID, horizon.Days(), e.now().Sub(start), err)
	}()

	if !horizon.IsSupported() {
		return nil, fmt.Errorf("%w: %d", contracts.ErrUnsupportedHorizon, int(horizon))
	}

	h, err := e.registry.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if !h.SupportsHorizon(horizon) {
		return nil, fmt.Errorf("%w: model %s does not serve %s", contracts.ErrUnsupportedHorizon, modelID, horizon)
	}
	p, err := e.prepare(h, history, 0)
	if err != nil {
		return nil, err
	}

	window, err := e.windows.Initial(h.Features(), p.scaled, h.Lookback())
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", modelID, err)
	}

	steps := horizon.Days()
	scaledPreds := make([]float64, 0, steps)
	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("forecast cancelled at step %d: %w", step, err)
		}

		pred, err := h.Predict(ctx, window)
		if err != nil {
			return nil, fmt.Errorf("model %s step %d: %w", modelID, step+1, err)
		}
		if math.IsNaN(pred) || math.IsInf(pred, 0) {
			return nil, fmt.Errorf("%w: model %s step %d produced %v", contracts.ErrNonFiniteOutput, modelID, step+1, pred)
		}
		scaledPreds = append(scaledPreds, pred)

		if step == steps-1 {
			break
		}
		targetValue, err := h.targetToFeatureUnits(pred)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", modelID, err)
		}
		row, err := e.exogenous.NextRow(window.Last(), h.TargetIndex(), targetValue)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", modelID, err)
		}
		window, err = e.windows.Advance(window, row)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", modelID, err)
		}
	}
	e.metrics.RecordPredictions(modelID, len(scaledPreds))

	values, err := h.InverseTarget(scaledPreds)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", modelID, err)
	}

	sigma := e.registry.ResidualStd(h)
	lastDate := p.frame.LastDate()
	points := make([]contracts.ForecastPoint, steps)
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: model %s step %d inverse-scaled to %v", contracts.ErrNonFiniteOutput, modelID, i+1, v)
		}
		lower, upper := e.band.Bounds(v, i+1, sigma)
		points[i] = contracts.ForecastPoint{
			Step:  i + 1,
			Date:  lastDate.AddDate(0, 0, i+1),
			Value: v,
			Lower: lower,
			Upper: upper,
		}
	}

	result = &contracts.ForecastResult{
		RunID:           uuid.NewString(),
		ModelID:         modelID,
		Target:          h.Target(),
		Horizon:         horizon,
		GeneratedAt:     e.now().UTC(),
		LastObserved:    lastDate,
		LastValue:       p.frame.Rows[p.frame.Len()-1][h.TargetIndex()],
		Points:          points,
		ExogenousPolicy: e.exogenous.Name(),
		BandMethod:      e.band.Method(),
		BandApproximate: true,
	}

	e.log.Info().
		Str("stage", contracts.StageFinalize.String()).
		Str("run_id", result.RunID).
		Str("model", modelID).
		Str("horizon", horizon.String()).
		Time("last_observed", lastDate).
		Float64("last_value", result.LastValue).
		Float64("final_value", points[len(points)-1].Value).
		Dur("elapsed", e.now().Sub(start)).
		Msg("forecast generated")

	return result, nil
}

// Evaluate 마지막 holdout 행에 대한 1-step 백테스트
// 각 시점의 입력은 실제 관측 윈도우 (자기회귀 아님)
func (e *Engine) Evaluate(ctx context.Context, modelID string, history *contracts.Frame, holdout int) (*contracts.EvaluationReport, error) {
	if holdout <= 0 {
		return nil, fmt.Errorf("%w: holdout %d", contracts.ErrEmptySeries, holdout)
	}

	h, err := e.registry.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	// 평가 대상 holdout 행 + 첫 대상 행 이전 lookback 행
	p, err := e.prepare(h, history, holdout)
	if err != nil {
		return nil, err
	}

	lookback := h.Lookback()
	n := len(p.scaled)
	actual := make([]float64, 0, holdout)
	scaledPreds := make([]float64, 0, holdout)

	for i := n - holdout; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluation cancelled: %w", err)
		}
		window, err := e.windows.Initial(h.Features(), p.scaled[i-lookback:i], lookback)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", modelID, err)
		}
		pred, err := h.Predict(ctx, window)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", modelID, err)
		}
		if math.IsNaN(pred) || math.IsInf(pred, 0) {
			return nil, fmt.Errorf("%w: model %s produced %v", contracts.ErrNonFiniteOutput, modelID, pred)
		}
		scaledPreds = append(scaledPreds, pred)
		actual = append(actual, p.frame.Rows[p.offset+i][h.TargetIndex()])
	}
	e.metrics.RecordPredictions(modelID, len(scaledPreds))

	predicted, err := h.InverseTarget(scaledPreds)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", modelID, err)
	}

	r, err := evaluation.Evaluate(actual, predicted)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", modelID, err)
	}

	report := &contracts.EvaluationReport{
		ModelID:     modelID,
		Samples:     r.Samples,
		RSquared:    r.RSquared,
		RMSE:        r.RMSE,
		MAE:         r.MAE,
		ResidualStd: r.ResidualStd,
		EvaluatedAt: e.now().UTC(),
	}
	e.metrics.RecordEvaluation(modelID, r.RSquared, r.RMSE, r.MAE, r.ResidualStd)

	e.log.Info().
		Str("model", modelID).
		Int("samples", r.Samples).
		Float64("r2", r.RSquared).
		Float64("rmse", r.RMSE).
		Float64("mae", r.MAE).
		Msg("model evaluated")

	return report, nil
}

// Compare 여러 모델 평가 후 R² 내림차순 정렬 (동률이면 RMSE 오름차순)
func (e *Engine) Compare(ctx context.Context, modelIDs []string, history *contracts.Frame, holdout int) ([]contracts.EvaluationReport, error) {
	if len(modelIDs) == 0 {
		modelIDs = e.registry.IDs()
	}

	reports := make([]contracts.EvaluationReport, 0, len(modelIDs))
	for _, id := range modelIDs {
		r, err := e.Evaluate(ctx, id, history, holdout)
		if err != nil {
			return nil, fmt.Errorf("compare %s: %w", id, err)
		}
		reports = append(reports, *r)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].RSquared != reports[j].RSquared {
			return reports[i].RSquared > reports[j].RSquared
		}
		return reports[i].RMSE < reports[j].RMSE
	})
	return reports, nil
}
