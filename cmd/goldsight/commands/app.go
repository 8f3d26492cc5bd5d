package commands

import (
	"fmt"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
	"github.com/HuyPham171-hub/goldsight-web/internal/forecast"
	"github.com/HuyPham171-hub/goldsight-web/pkg/config"
	"github.com/HuyPham171-hub/goldsight-web/pkg/database"
	"github.com/HuyPham171-hub/goldsight-web/pkg/httputil"
	"github.com/HuyPham171-hub/goldsight-web/pkg/logger"
	"github.com/HuyPham171-hub/goldsight-web/pkg/metrics"
	"github.com/HuyPham171-hub/goldsight-web/pkg/redis"
)

// appOptions 의존성 구성 옵션
type appOptions struct {
	csvPath     string // 비어 있지 않으면 DB 대신 CSV 원천 사용
	requireDB   bool
	offline     bool // 원천 조회 없이 레지스트리만 사용 (models 목록)
	withMetrics bool
}

// app 커맨드 공통 의존성
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB // CSV 모드에서는 nil
	redis    *redis.Client
	metrics  *metrics.Recorder
	registry *forecast.Registry
	engine   *forecast.Engine
	service  *forecast.Service
}

// newApp config → logger → DB/Redis → 레지스트리 → 엔진 → 서비스
func newApp(opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log, redis: redis.Disabled()}
	if opts.withMetrics && cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	if (opts.csvPath == "" && !opts.offline) || opts.requireDB {
		if err := cfg.RequireDatabase(); err != nil {
			return nil, fmt.Errorf("%w (or pass --csv)", err)
		}
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
	}

	if rc, err := redis.New(cfg); err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache and rate limits")
	} else {
		a.redis = rc
	}

	var regOpts []forecast.RegistryOption
	if cfg.Inference.BaseURL != "" {
		client := httputil.New(cfg, log).WithLocalLimit(cfg.Inference.RPS, 5)
		if a.redis.Enabled() {
			client = client.WithRateLimiter(redis.NewRateLimiter(a.redis, "goldsight"), redis.InferenceRateLimit)
		}
		regOpts = append(regOpts, forecast.WithInferenceClient(forecast.NewInferenceClient(client, cfg.Inference.BaseURL)))
	}

	a.registry, err = forecast.LoadRegistry(cfg.Forecast.ManifestPath(), log.Zerolog(), regOpts...)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("load model registry: %w", err)
	}

	a.engine = forecast.NewEngine(a.registry, log.Zerolog(),
		forecast.WithBandEstimator(forecast.NewResidualBand(cfg.Forecast.BandZ)),
		forecast.WithMetrics(a.metrics),
	)

	var history contracts.HistoryProvider
	svcOpts := []forecast.ServiceOption{
		forecast.WithCache(redis.NewCache(a.redis, "goldsight")),
		forecast.WithServiceMetrics(a.metrics),
	}
	if a.db != nil {
		repo := forecast.NewRepository(a.db)
		history = repo
		svcOpts = append(svcOpts, forecast.WithStore(repo))
	}
	if opts.csvPath != "" {
		history = forecast.NewCSVHistory(opts.csvPath)
	}

	a.service = forecast.NewService(a.engine, history, forecast.ServiceConfig{
		HistoryDays: cfg.Forecast.HistoryDays,
		Holdout:     cfg.Forecast.Holdout,
		CacheTTL:    cfg.Forecast.CacheTTL,
	}, log.Zerolog(), svcOpts...)

	return a, nil
}

// horizons 설정된 스케줄 horizon
func (a *app) horizons() []contracts.Horizon {
	out := make([]contracts.Horizon, 0, len(a.cfg.Forecast.Horizons))
	for _, h := range a.cfg.Forecast.Horizons {
		out = append(out, contracts.Horizon(h))
	}
	return out
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
