package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/HuyPham171-hub/goldsight-web/internal/api"
	"github.com/HuyPham171-hub/goldsight-web/internal/api/handlers"
	"github.com/HuyPham171-hub/goldsight-web/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `예측 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                          - Health check
  GET  /metrics                         - Prometheus metrics
  GET  /api/models                      - 모델 목록
  POST /api/forecast                    - 예측 실행 {"model": "...", "horizon": 7}
  GET  /api/forecast/{model}/latest     - 최근 저장 예측 (?horizon=7d)
  POST /api/evaluate                    - 모델 비교 {"models": [...], "holdout": 60}

Example:
  go run ./cmd/goldsight api
  go run ./cmd/goldsight api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
	apiCSV  string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().StringVar(&apiCSV, "csv", "", "원천 시계열 CSV 파일 (DB가 있으면 저장소로는 DB 사용)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== GoldSight API Server ===")

	a, err := newApp(appOptions{csvPath: apiCSV, withMetrics: true})
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port":    a.cfg.Port,
		"env":     a.cfg.Env,
		"models":  len(a.registry.IDs()),
		"metrics": a.metrics != nil,
	}).Info("Initializing API server")

	checks := map[string]handlers.Pinger{}
	if a.db != nil {
		checks["database"] = a.db
	}
	if a.redis.Enabled() {
		checks["redis"] = a.redis
	}

	var limiter *redis.RateLimiter
	if a.redis.Enabled() {
		limiter = redis.NewRateLimiter(a.redis, "goldsight")
	}

	router := api.NewRouter(api.Dependencies{
		Forecast: handlers.NewForecastHandler(a.service, a.cfg.Forecast.DefaultModel, a.log),
		Health:   handlers.NewHealthHandler(checks),
		Metrics:  a.metrics,
		Limiter:  limiter,
		Logger:   a.log,

		TrustedProxies: a.cfg.TrustedProxies,
	})

	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
