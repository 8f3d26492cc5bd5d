package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides JSON-typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value, returning false on a miss
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes cached keys
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.client.Enabled() || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Redis().Del(ctx, full...).Err()
}

// Predefined TTLs
const (
	TTLShort    = 1 * time.Minute  // 목록 조회
	TTLForecast = 6 * time.Hour    // 예측 결과 (일 단위 데이터, 장중 갱신 없음)
	TTLDaily    = 24 * time.Hour   // 평가 결과
)

// ForecastKey returns the forecast cache key for a model, horizon, last observation and band sigma
// 마지막 관측일 또는 σ가 바뀌면 자동으로 새 키
func ForecastKey(modelID string, horizon int, lastObserved time.Time, sigma float64) string {
	return fmt.Sprintf("forecast:%s:%dd:%s:s%s", modelID, horizon, lastObserved.UTC().Format("2006-01-02"),
		strconv.FormatFloat(sigma, 'g', -1, 64))
}

// LatestForecastKey returns the cache key for the latest stored forecast
func LatestForecastKey(modelID string, horizon int) string {
	return fmt.Sprintf("forecast:latest:%s:%dd", modelID, horizon)
}

// EvaluationKey returns the cache key for a model evaluation
func EvaluationKey(modelID string) string {
	return fmt.Sprintf("evaluation:%s", modelID)
}
