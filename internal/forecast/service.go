package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
	"github.com/HuyPham171-hub/goldsight-web/pkg/metrics"
	"github.com/HuyPham171-hub/goldsight-web/pkg/redis"
)

// ServiceConfig 서비스 파라미터
type ServiceConfig struct {
	HistoryDays int           // 조회할 원천 시계열 기간 (일)
	Holdout     int           // 기본 평가 구간 (행)
	CacheTTL    time.Duration // 예측 결과 캐시 TTL
}

// Service 원천 조회 → 정렬 → 예측 → 캐시/저장을 묶는 상위 계층
// API, 스케줄러, CLI가 공통으로 사용
type Service struct {
	engine  *Engine
	history contracts.HistoryProvider
	store   contracts.ForecastStore
	cache   ResultCache
	metrics *metrics.Recorder
	cfg     ServiceConfig
	log     zerolog.Logger
}

// ResultCache 예측/평가 캐시 (redis.Cache가 구현)
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ServiceOption 서비스 옵션
type ServiceOption func(*Service)

// WithStore 결과 저장소 설정 (없으면 저장/최신 조회 비활성)
func WithStore(store contracts.ForecastStore) ServiceOption {
	return func(s *Service) {
		s.store = store
	}
}

// WithCache Redis 캐시 설정
func WithCache(cache ResultCache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithServiceMetrics 캐시 지표 기록기 설정
func WithServiceMetrics(m *metrics.Recorder) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService 새 예측 서비스 생성
func NewService(engine *Engine, history contracts.HistoryProvider, cfg ServiceConfig, log zerolog.Logger, opts ...ServiceOption) *Service {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 730
	}
	if cfg.Holdout <= 0 {
		cfg.Holdout = 60
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = redis.TTLForecast
	}

	s := &Service{
		engine:  engine,
		history: history,
		cache:   redis.NewCache(redis.Disabled(), "goldsight"),
		cfg:     cfg,
		log:     log.With().Str("component", "forecast.service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine 예측 엔진
func (s *Service) Engine() *Engine {
	return s.engine
}

// Models 등록 모델 목록
func (s *Service) Models() []ModelInfo {
	return s.engine.Registry().List()
}

// History 모델 피처 기준으로 정렬된 일 단위 이력
func (s *Service) History(ctx context.Context, modelID string) (*contracts.Frame, error) {
	h, err := s.engine.Registry().Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	return s.loadFrame(ctx, h.Features(), h.Target())
}

// loadFrame 원천 조회 후 정렬
func (s *Service) loadFrame(ctx context.Context, features []string, target string) (*contracts.Frame, error) {
	to := s.engine.now().UTC()
	from := to.AddDate(0, 0, -s.cfg.HistoryDays)

	sources, err := s.history.LoadObservations(ctx, features, from, to)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}

	frame, err := s.engine.aligner.Align(sources, features, target)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("stage", contracts.StageAlign.String()).
		Int("rows", frame.Len()).
		Int("features", frame.Width()).
		Time("last_date", frame.LastDate()).
		Msg("history aligned")

	return frame, nil
}

// Forecast 최신 이력으로 예측 (마지막 관측일 + σ 단위 캐시)
// 새로 계산한 결과는 저장소에 저장
func (s *Service) Forecast(ctx context.Context, modelID string, horizon contracts.Horizon) (*contracts.ForecastResult, error) {
	if !horizon.IsSupported() {
		return nil, fmt.Errorf("%w: %d", contracts.ErrUnsupportedHorizon, horizon.Days())
	}

	h, err := s.engine.Registry().Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	frame, err := s.loadFrame(ctx, h.Features(), h.Target())
	if err != nil {
		return nil, err
	}

	key := redis.ForecastKey(modelID, horizon.Days(), frame.LastDate(), s.engine.Registry().ResidualStd(h))
	var cached contracts.ForecastResult
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("forecast cache read failed")
	}
	s.metrics.RecordCacheLookup(hit)
	if hit {
		return &cached, nil
	}

	result, err := s.engine.GenerateForecast(ctx, modelID, frame, horizon)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.SaveForecast(ctx, result); err != nil {
			return nil, fmt.Errorf("save forecast %s: %w", result.RunID, err)
		}
	}
	if err := s.cache.Set(ctx, key, result, s.cfg.CacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("forecast cache write failed")
	}
	if err := s.cache.Delete(ctx, redis.LatestForecastKey(modelID, horizon.Days())); err != nil {
		s.log.Warn().Err(err).Msg("latest forecast cache invalidation failed")
	}

	return result, nil
}

// Latest 저장소의 가장 최근 예측 (없으면 contracts.ErrNoResult)
func (s *Service) Latest(ctx context.Context, modelID string, horizon contracts.Horizon) (*contracts.ForecastResult, error) {
	if !horizon.IsSupported() {
		return nil, fmt.Errorf("%w: %d", contracts.ErrUnsupportedHorizon, horizon.Days())
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: no forecast store configured", contracts.ErrNoResult)
	}

	key := redis.LatestForecastKey(modelID, horizon.Days())
	var cached contracts.ForecastResult
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("latest cache read failed")
	}
	s.metrics.RecordCacheLookup(hit)
	if hit {
		return &cached, nil
	}

	result, err := s.store.GetLatestForecast(ctx, modelID, horizon)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, result, redis.TTLShort); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("latest cache write failed")
	}
	return result, nil
}

// Evaluate 백테스트 후 σ 갱신 및 평가 저장
// holdout <= 0 이면 설정 기본값
func (s *Service) Evaluate(ctx context.Context, modelID string, holdout int) (*contracts.EvaluationReport, error) {
	if holdout <= 0 {
		holdout = s.cfg.Holdout
	}

	frame, err := s.History(ctx, modelID)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.Evaluate(ctx, modelID, frame, holdout)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Registry().UpdateResidualStd(modelID, report.ResidualStd); err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.SaveEvaluation(ctx, *report); err != nil {
			return nil, fmt.Errorf("save evaluation %s: %w", modelID, err)
		}
	}
	if err := s.cache.Set(ctx, redis.EvaluationKey(modelID), report, redis.TTLDaily); err != nil {
		s.log.Warn().Err(err).Msg("evaluation cache write failed")
	}

	s.log.Info().
		Str("model", modelID).
		Float64("residual_std", report.ResidualStd).
		Msg("residual std refreshed")

	return report, nil
}

// LatestEvaluation 캐시 → 저장소 순으로 최근 평가 조회
func (s *Service) LatestEvaluation(ctx context.Context, modelID string) (*contracts.EvaluationReport, error) {
	var cached contracts.EvaluationReport
	hit, err := s.cache.Get(ctx, redis.EvaluationKey(modelID), &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("evaluation cache read failed")
	}
	s.metrics.RecordCacheLookup(hit)
	if hit {
		return &cached, nil
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: no forecast store configured", contracts.ErrNoResult)
	}
	return s.store.GetLatestEvaluation(ctx, modelID)
}

// Compare 여러 모델을 같은 이력 위에서 비교 (모든 모델 피처의 합집합으로 정렬)
// modelIDs가 비어 있으면 등록된 전체 모델
func (s *Service) Compare(ctx context.Context, modelIDs []string, holdout int) ([]contracts.EvaluationReport, error) {
	if holdout <= 0 {
		holdout = s.cfg.Holdout
	}
	reg := s.engine.Registry()
	if len(modelIDs) == 0 {
		modelIDs = reg.IDs()
	}
	if len(modelIDs) == 0 {
		return nil, errors.New("no models to compare")
	}

	var features []string
	seen := make(map[string]bool)
	for _, id := range modelIDs {
		h, err := reg.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, f := range h.Features() {
			if !seen[f] {
				seen[f] = true
				features = append(features, f)
			}
		}
	}

	frame, err := s.loadFrame(ctx, features, "")
	if err != nil {
		return nil, err
	}
	return s.engine.Compare(ctx, modelIDs, frame, holdout)
}
