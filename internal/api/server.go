package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/HuyPham171-hub/goldsight-web/pkg/config"
	"github.com/HuyPham171-hub/goldsight-web/pkg/logger"
)

// Server represents the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	config     *config.Config
}

// New creates a new API server
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      writeTimeout(cfg),
			IdleTimeout:       60 * time.Second,
		},
		logger: log,
		config: cfg,
	}
}

// writeTimeout 원격 추론은 스텝마다 왕복하므로 horizon 최대치만큼 여유
func writeTimeout(cfg *config.Config) time.Duration {
	perStep := cfg.Inference.Timeout
	if cfg.Inference.BaseURL == "" || perStep <= 0 {
		return 30 * time.Second
	}
	return 30*perStep + 15*time.Second
}

// Handler 라우터 (테스트용)
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"port": s.config.Port,
		"env":  s.config.Env,
	}).Info("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
