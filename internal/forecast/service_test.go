package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

// fakeHistory 프레임을 원천 시계열로 되돌려 제공
type fakeHistory struct {
	series []contracts.SourceSeries
	err    error
	calls  int
}

func (f *fakeHistory) LoadObservations(_ context.Context, features []string, _, _ time.Time) ([]contracts.SourceSeries, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

func frameToSeries(frame *contracts.Frame) []contracts.SourceSeries {
	s := contracts.SourceSeries{Source: "test", Frequency: contracts.FrequencyDaily}
	for i, d := range frame.Dates {
		for j, name := range frame.Features {
			s.Observations = append(s.Observations, contracts.Observation{Date: d, Feature: name, Value: frame.Rows[i][j]})
		}
	}
	return []contracts.SourceSeries{s}
}

// fakeStore 메모리 저장소
type fakeStore struct {
	mu          sync.Mutex
	forecasts   []*contracts.ForecastResult
	evaluations []contracts.EvaluationReport
	saveErr     error
}

func (f *fakeStore) SaveForecast(_ context.Context, r *contracts.ForecastResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.forecasts = append(f.forecasts, r)
	return nil
}

func (f *fakeStore) GetLatestForecast(_ context.Context, modelID string, horizon contracts.Horizon) (*contracts.ForecastResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.forecasts) - 1; i >= 0; i-- {
		if r := f.forecasts[i]; r.ModelID == modelID && r.Horizon == horizon {
			return r, nil
		}
	}
	return nil, contracts.ErrNoResult
}

func (f *fakeStore) SaveEvaluation(_ context.Context, report contracts.EvaluationReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluations = append(f.evaluations, report)
	return nil
}

func (f *fakeStore) GetLatestEvaluation(_ context.Context, modelID string) (*contracts.EvaluationReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.evaluations) - 1; i >= 0; i-- {
		if f.evaluations[i].ModelID == modelID {
			r := f.evaluations[i]
			return &r, nil
		}
	}
	return nil, contracts.ErrNoResult
}

// memoryCache JSON 왕복하는 메모리 캐시
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func newTestService(t *testing.T, store contracts.ForecastStore) (*Service, *fakeHistory) {
	t.Helper()
	frame := trendFrame(90, testFeatures())
	engine := newTestEngine(t, newTrendHandle(t, frame, "trend", 5))
	history := &fakeHistory{series: frameToSeries(frame)}

	var opts []ServiceOption
	if store != nil {
		opts = append(opts, WithStore(store))
	}
	return NewService(engine, history, ServiceConfig{HistoryDays: 400, Holdout: 10}, zerolog.Nop(), opts...), history
}

func TestService_Forecast_PersistsResult(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newTestService(t, store)

	result, err := svc.Forecast(context.Background(), "trend", contracts.Horizon7D)
	require.NoError(t, err)
	require.Len(t, result.Points, 7)
	assert.InDelta(t, 1992.0, result.Points[6].Value, 1e-6)

	require.Len(t, store.forecasts, 1)
	assert.Equal(t, result.RunID, store.forecasts[0].RunID)

	latest, err := svc.Latest(context.Background(), "trend", contracts.Horizon7D)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, latest.RunID)

	_, err = svc.Latest(context.Background(), "trend", contracts.Horizon30D)
	assert.ErrorIs(t, err, contracts.ErrNoResult)
}

func TestService_Forecast_Errors(t *testing.T) {
	t.Run("unsupported horizon skips history", func(t *testing.T) {
		svc, history := newTestService(t, nil)
		_, err := svc.Forecast(context.Background(), "trend", contracts.Horizon(14))
		assert.ErrorIs(t, err, contracts.ErrUnsupportedHorizon)
		assert.Zero(t, history.calls)
	})

	t.Run("unknown model", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		_, err := svc.Forecast(context.Background(), "nope", contracts.Horizon7D)
		assert.ErrorIs(t, err, contracts.ErrModelNotFound)
	})

	t.Run("history provider failure", func(t *testing.T) {
		svc, history := newTestService(t, nil)
		history.err = errors.New("connection refused")
		_, err := svc.Forecast(context.Background(), "trend", contracts.Horizon7D)
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("store failure is not swallowed", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeStore{saveErr: errors.New("disk full")})
		result, err := svc.Forecast(context.Background(), "trend", contracts.Horizon7D)
		assert.Nil(t, result)
		assert.ErrorContains(t, err, "disk full")
	})

	t.Run("latest without store", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		_, err := svc.Latest(context.Background(), "trend", contracts.Horizon7D)
		assert.ErrorIs(t, err, contracts.ErrNoResult)
	})
}

func TestService_Evaluate_RefreshesResidualStd(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	h, err := svc.Engine().Registry().Get(ctx, "trend")
	require.NoError(t, err)
	assert.Equal(t, 5.0, svc.Engine().Registry().ResidualStd(h))

	report, err := svc.Evaluate(ctx, "trend", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, report.Samples, "default holdout from config")
	assert.InDelta(t, 0.0, report.RMSE, 1e-6)

	assert.InDelta(t, report.ResidualStd, svc.Engine().Registry().ResidualStd(h), 1e-12)
	require.Len(t, store.evaluations, 1)

	latest, err := svc.LatestEvaluation(ctx, "trend")
	require.NoError(t, err)
	assert.Equal(t, report.Samples, latest.Samples)
}

func TestService_Forecast_CacheFollowsResidualStd(t *testing.T) {
	frame := trendFrame(90, testFeatures())
	engine := newTestEngine(t, newTrendHandle(t, frame, "trend", 5))
	svc := NewService(engine, &fakeHistory{series: frameToSeries(frame)},
		ServiceConfig{HistoryDays: 400, Holdout: 10}, zerolog.Nop(), WithCache(newMemoryCache()))
	ctx := context.Background()

	first, err := svc.Forecast(ctx, "trend", contracts.Horizon7D)
	require.NoError(t, err)
	assert.Greater(t, first.Points[0].Width(), 0.0)

	again, err := svc.Forecast(ctx, "trend", contracts.Horizon7D)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, again.RunID, "same data and sigma is served from cache")

	_, err = svc.Evaluate(ctx, "trend", 0)
	require.NoError(t, err)

	fresh, err := svc.Forecast(ctx, "trend", contracts.Horizon7D)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, fresh.RunID, "refreshed sigma bypasses the old entry")
	assert.Less(t, fresh.Points[0].Width(), first.Points[0].Width())
}

func TestService_Compare(t *testing.T) {
	frame := trendFrame(90, testFeatures())
	persist, err := NewHandle(ModelSpec{ID: "persist", Architecture: "linear", Lookback: 60},
		persistenceModel(t, 60, frame.Width()), fitMinMax(t, frame), nil)
	require.NoError(t, err)

	engine := newTestEngine(t, newTrendHandle(t, frame, "trend", 5), persist)
	svc := NewService(engine, &fakeHistory{series: frameToSeries(frame)}, ServiceConfig{Holdout: 5}, zerolog.Nop())

	reports, err := svc.Compare(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "trend", reports[0].ModelID)
	assert.Equal(t, "persist", reports[1].ModelID)
	assert.InDelta(t, 2.0, reports[1].RMSE, 1e-6)
}

func TestService_Models(t *testing.T) {
	svc, _ := newTestService(t, nil)
	models := svc.Models()
	require.Len(t, models, 1)
	assert.Equal(t, "trend", models[0].ID)
}
