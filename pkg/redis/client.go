package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HuyPham171-hub/goldsight-web/pkg/config"
)

// Client wraps a go-redis client
// ⭐ SSOT: Redis 연결은 여기서만 관리
//
// REDIS_ENABLED=false이면 모든 헬퍼가 no-op (캐시 miss, 레이트 리밋 통과)
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New creates a client from config and pings it
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return Disabled(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// Disabled returns a client whose helpers are no-ops
func Disabled() *Client {
	return &Client{enabled: false}
}

// Close closes the connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled reports whether Redis is configured
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// Ping checks the connection, returning nil when disabled
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Redis returns the underlying go-redis client
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
