package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	Database DatabaseConfig
	Redis    RedisConfig

	Forecast  ForecastConfig
	Inference InferenceConfig

	// TrustedProxies lists the reverse proxies whose X-Forwarded-For is honored
	TrustedProxies []*net.IPNet

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ForecastConfig holds forecast pipeline settings
type ForecastConfig struct {
	ModelDir     string        // 가중치/스케일러 디렉토리
	Manifest     string        // models.yaml 경로 (비우면 ModelDir/models.yaml)
	DefaultModel string        // API/스케줄러 기본 모델
	Horizons     []int         // 스케줄 예측 대상 horizon (일)
	BandZ        float64       // 신뢰 밴드 배수
	Holdout      int           // 평가 시 holdout 행 수
	CacheTTL     time.Duration // Redis 예측 캐시 TTL
	HistoryDays  int           // 예측 시 로드할 과거 일수
}

// ManifestPath returns the model manifest path, defaulting to ModelDir/models.yaml
func (f ForecastConfig) ManifestPath() string {
	if f.Manifest != "" {
		return f.Manifest
	}
	return filepath.Join(f.ModelDir, "models.yaml")
}

// InferenceConfig holds settings for the remote inference server
type InferenceConfig struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64 // 로컬 요청 속도 제한 (0이면 무제한)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Forecast: ForecastConfig{
			ModelDir:     getEnv("FORECAST_MODEL_DIR", "models"),
			Manifest:     getEnv("FORECAST_MANIFEST", ""),
			DefaultModel: getEnv("FORECAST_DEFAULT_MODEL", "gru_multivariate"),
			Horizons:     getEnvAsIntList("FORECAST_HORIZONS", []int{7, 21, 30}),
			BandZ:        getEnvAsFloat("FORECAST_BAND_Z", 1.96),
			Holdout:      getEnvAsInt("FORECAST_HOLDOUT", 60),
			CacheTTL:     getEnvAsDuration("FORECAST_CACHE_TTL", "6h"),
			HistoryDays:  getEnvAsInt("FORECAST_HISTORY_DAYS", 730),
		},

		Inference: InferenceConfig{
			BaseURL: getEnv("INFERENCE_BASE_URL", ""),
			Timeout: getEnvAsDuration("INFERENCE_TIMEOUT", "10s"),
			RPS:     getEnvAsFloat("INFERENCE_RPS", 20),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	proxies, err := parseTrustedProxies(getEnv("TRUSTED_PROXIES", ""))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	cfg.TrustedProxies = proxies

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// RequireDatabase reports an error when DATABASE_URL is unset
// api, scheduler, db 명령에서 호출
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if len(c.Forecast.Horizons) == 0 {
		return fmt.Errorf("FORECAST_HORIZONS must not be empty")
	}
	for _, h := range c.Forecast.Horizons {
		if h != 7 && h != 21 && h != 30 {
			return fmt.Errorf("FORECAST_HORIZONS: unsupported horizon %d (allowed: 7, 21, 30)", h)
		}
	}

	if c.Forecast.BandZ <= 0 {
		return fmt.Errorf("FORECAST_BAND_Z must be positive, got %g", c.Forecast.BandZ)
	}
	if c.Forecast.Holdout <= 0 {
		return fmt.Errorf("FORECAST_HOLDOUT must be positive, got %d", c.Forecast.Holdout)
	}
	if c.Forecast.HistoryDays <= 0 {
		return fmt.Errorf("FORECAST_HISTORY_DAYS must be positive, got %d", c.Forecast.HistoryDays)
	}
	if c.Inference.RPS < 0 {
		return fmt.Errorf("INFERENCE_RPS must not be negative")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsIntList parses a comma-separated list such as "7,21,30"
func getEnvAsIntList(key string, defaultValue []int) []int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []int
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, v)
	}
	return out
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// parseTrustedProxies parses a comma-separated list of CIDRs or bare IPs
func parseTrustedProxies(value string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			ip := net.ParseIP(part)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", part)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(part)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		out = append(out, network)
	}
	return out, nil
}
