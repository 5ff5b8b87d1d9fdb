package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"navius/app/domain"
	"navius/app/port"
	applog "navius/app/utils/logger"
)

// FallbackCache sends every operation to primary and repeats it on
// secondary when primary errors. A primary miss is not an error.
type FallbackCache struct {
	primary   port.Cache
	secondary port.Cache
	logger    *slog.Logger
	fallbacks atomic.Uint64
}

// NewFallbackCache wraps primary with secondary
func NewFallbackCache(primary, secondary port.Cache, logger *slog.Logger) *FallbackCache {
	return &FallbackCache{
		primary:   primary,
		secondary: secondary,
		logger:    applog.CacheLogger(logger).With("backend", "fallback", "cache", primary.Name()),
	}
}

func (c *FallbackCache) failover(op string, err error) {
	c.fallbacks.Add(1)
	c.logger.Warn("Primary cache failed, using fallback", "operation", op, "error", err)
}

func (c *FallbackCache) Name() string { return c.primary.Name() }

func (c *FallbackCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := c.primary.Get(ctx, key)
	if err != nil {
		c.failover("get", err)
		return c.secondary.Get(ctx, key)
	}
	return v, ok, nil
}

func (c *FallbackCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.primary.Set(ctx, key, value, ttl); err != nil {
		c.failover("set", err)
		return c.secondary.Set(ctx, key, value, ttl)
	}
	return nil
}

func (c *FallbackCache) Delete(ctx context.Context, key string) (bool, error) {
	ok, err := c.primary.Delete(ctx, key)
	if err != nil {
		c.failover("delete", err)
		return c.secondary.Delete(ctx, key)
	}
	return ok, nil
}

func (c *FallbackCache) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := c.primary.Exists(ctx, key)
	if err != nil {
		c.failover("exists", err)
		return c.secondary.Exists(ctx, key)
	}
	return ok, nil
}

func (c *FallbackCache) Clear(ctx context.Context) error {
	if err := c.primary.Clear(ctx); err != nil {
		c.failover("clear", err)
		return c.secondary.Clear(ctx)
	}
	return nil
}

func (c *FallbackCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out, err := c.primary.GetMany(ctx, keys)
	if err != nil {
		c.failover("get_many", err)
		return c.secondary.GetMany(ctx, keys)
	}
	return out, nil
}

func (c *FallbackCache) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if err := c.primary.SetMany(ctx, items, ttl); err != nil {
		c.failover("set_many", err)
		return c.secondary.SetMany(ctx, items, ttl)
	}
	return nil
}

func (c *FallbackCache) DeleteMany(ctx context.Context, keys []string) (int, error) {
	n, err := c.primary.DeleteMany(ctx, keys)
	if err != nil {
		c.failover("delete_many", err)
		return c.secondary.DeleteMany(ctx, keys)
	}
	return n, nil
}

func (c *FallbackCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	n, err := c.primary.Increment(ctx, key, delta)
	if err != nil {
		c.failover("increment", err)
		return c.secondary.Increment(ctx, key, delta)
	}
	return n, nil
}

// Stats returns the primary's stats plus fallback_count
func (c *FallbackCache) Stats() domain.CacheStats {
	stats := c.primary.Stats()
	custom := make(map[string]uint64, len(stats.CustomMetrics)+1)
	for k, v := range stats.CustomMetrics {
		custom[k] = v
	}
	custom["fallback_count"] = c.fallbacks.Load()
	stats.CustomMetrics = custom
	return stats
}

var _ port.Cache = (*FallbackCache)(nil)
