package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/pim/backend/pkg/config"
)

// connectTimeout bounds the startup ping of the cache
const connectTimeout = 3 * time.Second

// Client is the optional Redis connection behind the family-mask cache.
// A disabled client turns every cache read into a miss and every write into a no-op.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New connects when REDIS_ENABLED is set and returns a disabled client otherwise
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	opts := options(cfg.Redis)
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("family mask cache unreachable at %s: %w", opts.Addr, err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// options maps the env settings onto go-redis options
func options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: connectTimeout,
	}
}

// NewFromRedis wraps an existing go-redis client; nil gives a disabled client
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb, enabled: rdb != nil}
}

// Ping checks the connection. A disabled client has nothing to reach.
func (c *Client) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether family masks are cached at all
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis returns the go-redis client used by Cache
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
