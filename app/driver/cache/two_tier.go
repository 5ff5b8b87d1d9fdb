package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"navius/app/domain"
	"navius/app/port"
	applog "navius/app/utils/logger"
)

// TwoTierCache reads through a fast tier into a slow tier and promotes slow
// hits. Writes go to both tiers and fail only when both fail.
type TwoTierCache struct {
	name   string
	fast   port.Cache
	slow   port.Cache
	logger *slog.Logger

	fastHits atomic.Uint64
	slowHits atomic.Uint64
	misses   atomic.Uint64
}

// NewTwoTierCache composes fast and slow into one cache
func NewTwoTierCache(name string, fast, slow port.Cache, logger *slog.Logger) *TwoTierCache {
	return &TwoTierCache{
		name:   name,
		fast:   fast,
		slow:   slow,
		logger: applog.CacheLogger(logger).With("backend", "two_tier", "cache", name),
	}
}

func (c *TwoTierCache) Name() string { return c.name }

// both runs fastOp and slowOp concurrently. The result is an error only when
// both fail, in which case the slow tier's error is returned.
func (c *TwoTierCache) both(op string, fastOp, slowOp func() error) error {
	var (
		wg      sync.WaitGroup
		fastErr error
		slowErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		fastErr = fastOp()
	}()
	go func() {
		defer wg.Done()
		slowErr = slowOp()
	}()
	wg.Wait()

	if fastErr != nil {
		c.logger.Warn("Fast tier operation failed", "operation", op, "error", fastErr)
	}
	if slowErr != nil {
		c.logger.Warn("Slow tier operation failed", "operation", op, "error", slowErr)
	}
	if fastErr != nil && slowErr != nil {
		return slowErr
	}
	return nil
}

func (c *TwoTierCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := c.fast.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Fast tier get failed", "key", key, "error", err)
	} else if ok {
		c.fastHits.Add(1)
		return val, true, nil
	}

	val, ok, err = c.slow.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}

	c.slowHits.Add(1)
	if err := c.fast.Set(ctx, key, val, 0); err != nil {
		c.logger.Warn("Promotion to fast tier failed", "key", key, "error", err)
	}
	return val, true, nil
}

func (c *TwoTierCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.both("set",
		func() error { return c.fast.Set(ctx, key, value, ttl) },
		func() error { return c.slow.Set(ctx, key, value, ttl) },
	)
}

func (c *TwoTierCache) Delete(ctx context.Context, key string) (bool, error) {
	var fastDeleted, slowDeleted bool
	err := c.both("delete",
		func() (err error) {
			fastDeleted, err = c.fast.Delete(ctx, key)
			return err
		},
		func() (err error) {
			slowDeleted, err = c.slow.Delete(ctx, key)
			return err
		},
	)
	return fastDeleted || slowDeleted, err
}

func (c *TwoTierCache) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := c.fast.Exists(ctx, key)
	if err == nil && ok {
		return true, nil
	}
	return c.slow.Exists(ctx, key)
}

func (c *TwoTierCache) Clear(ctx context.Context) error {
	return c.both("clear",
		func() error { return c.fast.Clear(ctx) },
		func() error { return c.slow.Clear(ctx) },
	)
}

func (c *TwoTierCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out, err := c.fast.GetMany(ctx, keys)
	if err != nil {
		c.logger.Warn("Fast tier get many failed", "error", err)
		out = make(map[string][]byte, len(keys))
	}
	c.fastHits.Add(uint64(len(out)))

	missing := make([]string, 0, len(keys)-len(out))
	for _, k := range keys {
		if _, ok := out[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	found, err := c.slow.GetMany(ctx, missing)
	if err != nil {
		return nil, err
	}
	c.slowHits.Add(uint64(len(found)))
	c.misses.Add(uint64(len(missing) - len(found)))

	if len(found) > 0 {
		if err := c.fast.SetMany(ctx, found, 0); err != nil {
			c.logger.Warn("Promotion to fast tier failed", "count", len(found), "error", err)
		}
	}
	for k, v := range found {
		out[k] = v
	}
	return out, nil
}

func (c *TwoTierCache) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	return c.both("set_many",
		func() error { return c.fast.SetMany(ctx, items, ttl) },
		func() error { return c.slow.SetMany(ctx, items, ttl) },
	)
}

func (c *TwoTierCache) DeleteMany(ctx context.Context, keys []string) (int, error) {
	var fastN, slowN int
	err := c.both("delete_many",
		func() (err error) {
			fastN, err = c.fast.DeleteMany(ctx, keys)
			return err
		},
		func() (err error) {
			slowN, err = c.slow.DeleteMany(ctx, keys)
			return err
		},
	)
	return max(fastN, slowN), err
}

// Increment counts in the slow tier and drops the fast copy
func (c *TwoTierCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	n, err := c.slow.Increment(ctx, key, delta)
	if err != nil {
		return 0, err
	}
	if _, err := c.fast.Delete(ctx, key); err != nil {
		c.logger.Warn("Fast tier invalidation failed", "key", key, "error", err)
	}
	return n, nil
}

func (c *TwoTierCache) Stats() domain.CacheStats {
	fast := c.fast.Stats()
	slow := c.slow.Stats()

	fastHits := c.fastHits.Load()
	slowHits := c.slowHits.Load()

	return domain.CacheStats{
		Size:      slow.Size,
		Hits:      fastHits + slowHits,
		Misses:    c.misses.Load(),
		Evictions: fast.Evictions + slow.Evictions,
		Capacity:  fast.Capacity,
		CustomMetrics: map[string]uint64{
			"fast_hits": fastHits,
			"slow_hits": slowHits,
			"fast_size": uint64(fast.Size),
		},
	}
}

var _ port.Cache = (*TwoTierCache)(nil)
