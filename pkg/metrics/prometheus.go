package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder records Prometheus metrics
// ⭐ SSOT: goldsight_* 지표 정의는 여기서만
//
// nil Recorder의 메서드는 아무것도 하지 않음 (지표 비활성화 시)
type Recorder struct {
	gatherer prometheus.Gatherer

	forecastsTotal   *prometheus.CounterVec
	forecastDuration *prometheus.HistogramVec
	modelPredictions *prometheus.CounterVec
	evaluationScore  *prometheus.GaugeVec
	cacheLookups     *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers metrics on the default registry
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry registers metrics on the given registry
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		gatherer: gatherer,
		forecastsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldsight_forecasts_total",
				Help: "Total number of forecast runs by model, horizon and outcome",
			},
			[]string{"model", "horizon", "outcome"},
		),
		forecastDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goldsight_forecast_duration_seconds",
				Help:    "Duration of autoregressive forecast runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "horizon"},
		),
		modelPredictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldsight_model_predictions_total",
				Help: "Total number of single-step model invocations",
			},
			[]string{"model"},
		),
		evaluationScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "goldsight_model_evaluation",
				Help: "Latest backtest metric per model (r_squared, rmse, mae, residual_std)",
			},
			[]string{"model", "metric"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldsight_forecast_cache_lookups_total",
				Help: "Forecast cache lookups by result",
			},
			[]string{"result"},
		),
		jobRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldsight_job_runs_total",
				Help: "Scheduled job runs by job and outcome",
			},
			[]string{"job", "outcome"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldsight_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goldsight_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordForecast records one forecast run
func (r *Recorder) RecordForecast(model string, horizon int, d time.Duration, err error) {
	if r == nil {
		return
	}
	h := strconv.Itoa(horizon)
	r.forecastsTotal.WithLabelValues(model, h, outcome(err)).Inc()
	if err == nil {
		r.forecastDuration.WithLabelValues(model, h).Observe(d.Seconds())
	}
}

// RecordPredictions records single-step inference calls
func (r *Recorder) RecordPredictions(model string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.modelPredictions.WithLabelValues(model).Add(float64(n))
}

// RecordEvaluation records the latest evaluation metrics
func (r *Recorder) RecordEvaluation(model string, rSquared, rmse, mae, residualStd float64) {
	if r == nil {
		return
	}
	r.evaluationScore.WithLabelValues(model, "r_squared").Set(rSquared)
	r.evaluationScore.WithLabelValues(model, "rmse").Set(rmse)
	r.evaluationScore.WithLabelValues(model, "mae").Set(mae)
	r.evaluationScore.WithLabelValues(model, "residual_std").Set(residualStd)
}

// RecordCacheLookup records a cache hit or miss
func (r *Recorder) RecordCacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordJobRun records a scheduled job run
func (r *Recorder) RecordJobRun(job string, err error) {
	if r == nil {
		return
	}
	r.jobRuns.WithLabelValues(job, outcome(err)).Inc()
}

// RecordHTTP records an HTTP request by route template
func (r *Recorder) RecordHTTP(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Handler returns the /metrics endpoint handler
func (r *Recorder) Handler() http.Handler {
	if r == nil || r.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
