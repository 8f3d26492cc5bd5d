package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func TestRecorder_RecordForecast(t *testing.T) {
	r := newTestRecorder()

	r.RecordForecast("gru", 7, 120*time.Millisecond, nil)
	r.RecordForecast("gru", 7, 0, errors.New("boom"))
	r.RecordForecast("gru", 7, 80*time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.forecastsTotal.WithLabelValues("gru", "7", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.forecastsTotal.WithLabelValues("gru", "7", "error")))
}

func TestRecorder_RecordEvaluation(t *testing.T) {
	r := newTestRecorder()

	r.RecordEvaluation("lstm", 0.93, 12.5, 9.1, 12.4)

	assert.Equal(t, 0.93, testutil.ToFloat64(r.evaluationScore.WithLabelValues("lstm", "r_squared")))
	assert.Equal(t, 12.5, testutil.ToFloat64(r.evaluationScore.WithLabelValues("lstm", "rmse")))
}

func TestRecorder_CacheAndJobs(t *testing.T) {
	r := newTestRecorder()

	r.RecordCacheLookup(true)
	r.RecordCacheLookup(false)
	r.RecordCacheLookup(false)
	r.RecordJobRun("daily_forecast", nil)
	r.RecordPredictions("gru", 7)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobRuns.WithLabelValues("daily_forecast", "success")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.modelPredictions.WithLabelValues("gru")))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordForecast("gru", 7, time.Second, nil)
		r.RecordEvaluation("gru", 1, 0, 0, 0)
		r.RecordCacheLookup(true)
		r.RecordJobRun("x", nil)
		r.RecordHTTP("/health", "GET", 200, time.Millisecond)
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := newTestRecorder()
	r.RecordHTTP("/api/models", http.MethodGet, http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goldsight_http_requests_total")
}
