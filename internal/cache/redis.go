package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sitepulse-io/sitepulse/internal/metrics"
)

// RedisCache is a Cache backed by Redis. All failures are swallowed: a
// failed Get is a miss and a failed Set is dropped. Each outage episode
// is logged once when it starts and once when the cache recovers, so a
// long Redis outage does not flood the logs.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger

	mu           sync.Mutex
	available    bool
	lastWarnedAt time.Time
}

// NewRedisCache creates a cache from a redis:// URL. A Redis that is down
// at startup is not an error; the cache starts in the degraded state and
// recovers on its own once Redis is reachable.
func NewRedisCache(redisURL string, logger *slog.Logger) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	c := &RedisCache{
		client:    redis.NewClient(opt),
		logger:    logger,
		available: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.markFailure(err)
	}

	return c, nil
}

// NewRedisCacheFromClient wraps an existing client. Used by tests.
func NewRedisCacheFromClient(client *redis.Client, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger, available: true}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.markSuccess()
			return nil, false
		}
		c.markFailure(err)
		return nil, false
	}

	c.markSuccess()
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.markFailure(err)
		return
	}
	c.markSuccess()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// markFailure flips the cache into the degraded state, logging only at the
// start of an episode.
func (c *RedisCache) markFailure(err error) {
	metrics.CacheErrors.Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.available {
		c.available = false
		c.lastWarnedAt = time.Now()
		if c.logger != nil {
			c.logger.Warn("cache unavailable, falling back to direct queries", "error", err)
		}
	}
}

// markSuccess ends a degraded episode, if one is in progress.
func (c *RedisCache) markSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.available {
		c.available = true
		if c.logger != nil {
			c.logger.Info("cache recovered")
		}
	}
}
