package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a sliding-window rate limiter on a Redis sorted set
// ⭐ SSOT: 분산 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig holds rate limit parameters
type RateLimitConfig struct {
	Key    string        // 식별자 (예: "api:forecast:<ip>", "inference")
	Limit  int           // 윈도우 내 최대 요청 수
	Window time.Duration // 윈도우 길이
}

// WithKey returns a copy scoped to a per-client key suffix
func (c RateLimitConfig) WithKey(suffix string) RateLimitConfig {
	c.Key = c.Key + ":" + suffix
	return c
}

// slidingWindow trims expired entries and records the request when under the limit (atomic)
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow reports whether a request is allowed and how many remain
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := time.Now()
	nowMs := now.UnixMilli()
	windowStart := nowMs - cfg.Window.Milliseconds()
	// 같은 밀리초 요청이 하나로 합쳐지지 않도록 나노초 member 사용
	member := fmt.Sprintf("%d", now.UnixNano())

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		nowMs,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
		member,
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	return result[0] == 1, int(result[1]), nil
}

// Wait blocks until allowed or the context is done
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Predefined rate limit configs
var (
	// ForecastAPIRateLimit allows 30 forecast requests per client per minute
	ForecastAPIRateLimit = RateLimitConfig{
		Key:    "api:forecast",
		Limit:  30,
		Window: time.Minute,
	}

	// EvaluateAPIRateLimit allows 5 evaluation requests per client per minute
	EvaluateAPIRateLimit = RateLimitConfig{
		Key:    "api:evaluate",
		Limit:  5,
		Window: time.Minute,
	}

	// InferenceRateLimit allows 50 inference calls per second across all instances
	InferenceRateLimit = RateLimitConfig{
		Key:    "inference",
		Limit:  50,
		Window: time.Second,
	}
)
