// Package cache provides the port.Cache backends: an in-process map with
// configurable eviction, Redis, and the two-tier and fallback compositions
// built from them.
package cache

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"navius/app/domain"
	"navius/app/port"
	apperrors "navius/app/utils/errors"
	applog "navius/app/utils/logger"
)

const defaultCleanupInterval = 60 * time.Second

type memoryEntry struct {
	value        []byte
	createdAt    time.Time
	expiresAt    time.Time
	lastAccessed time.Time
	hitCount     uint64
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is a mutex guarded map with per-entry expiry and a bounded
// capacity. Lookups of expired entries remove them and count an eviction.
type MemoryCache struct {
	name       string
	capacity   int
	defaultTTL time.Duration
	policy     domain.EvictionPolicy
	now        func() time.Time
	logger     *slog.Logger

	mu        sync.Mutex
	entries   map[string]*memoryEntry
	hits      uint64
	misses    uint64
	evictions uint64

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

// MemoryOption customizes a MemoryCache
type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// WithCleanupInterval sets the sweep period. Zero disables the sweeper.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *MemoryCache) { c.cleanupInterval = d }
}

// WithLogger sets the cache logger
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(c *MemoryCache) { c.logger = logger }
}

// NewMemoryCache creates a memory cache for cfg. The expiry sweeper runs
// only when cfg has a default TTL; Close stops it.
func NewMemoryCache(cfg domain.CacheConfig, opts ...MemoryOption) *MemoryCache {
	policy := cfg.EvictionPolicy
	if policy == "" {
		policy = domain.EvictionLRU
	}

	c := &MemoryCache{
		name:            cfg.Name,
		capacity:        cfg.Capacity,
		defaultTTL:      cfg.DefaultTTL,
		policy:          policy,
		now:             time.Now,
		logger:          slog.Default(),
		entries:         make(map[string]*memoryEntry),
		cleanupInterval: defaultCleanupInterval,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = applog.CacheLogger(c.logger).With("backend", "memory", "cache", c.name)

	if c.defaultTTL > 0 && c.cleanupInterval > 0 {
		c.wg.Add(1)
		go c.cleanupLoop()
	}

	return c
}

func (c *MemoryCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.PurgeExpired(); n > 0 {
				c.logger.Debug("Swept expired entries", "count", n)
			}
		case <-c.stop:
			return
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
	return nil
}

// PurgeExpired removes every expired entry and returns how many were removed
func (c *MemoryCache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeExpiredLocked(c.now())
}

func (c *MemoryCache) purgeExpiredLocked(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			removed++
		}
	}
	c.evictions += uint64(removed)
	return removed
}

func (c *MemoryCache) Name() string { return c.name }

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.lookupLocked(key, now)
	if !ok {
		c.misses++
		return nil, false, nil
	}

	e.lastAccessed = now
	e.hitCount++
	c.hits++
	return cloneBytes(e.value), true, nil
}

// lookupLocked returns a live entry, dropping it if it has expired
func (c *MemoryCache) lookupLocked(key string, now time.Time) (*memoryEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(now) {
		delete(c.entries, key)
		c.evictions++
		return nil, false
	}
	return e, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(key, value, ttl, c.now())
}

func (c *MemoryCache) setLocked(key string, value []byte, ttl time.Duration, now time.Time) error {
	if e, ok := c.entries[key]; ok {
		e.value = cloneBytes(value)
		e.createdAt = now
		e.lastAccessed = now
		e.expiresAt = c.expiry(ttl, now)
		return nil
	}

	if c.capacity > 0 && len(c.entries) >= c.capacity {
		c.purgeExpiredLocked(now)
	}
	if c.capacity > 0 && len(c.entries) >= c.capacity {
		if err := c.evictLocked(now); err != nil {
			return err
		}
	}

	c.entries[key] = &memoryEntry{
		value:        cloneBytes(value),
		createdAt:    now,
		expiresAt:    c.expiry(ttl, now),
		lastAccessed: now,
	}
	return nil
}

func (c *MemoryCache) expiry(ttl time.Duration, now time.Time) time.Time {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func (c *MemoryCache) evictLocked(now time.Time) error {
	var victim string

	switch c.policy {
	case domain.EvictionNone:
		return apperrors.NewCacheError("cache is at capacity", nil).
			WithContext("cache", c.name).
			WithContext("capacity", c.capacity)
	case domain.EvictionLFU:
		victim = c.pick(func(a, b *memoryEntry) bool {
			if a.hitCount != b.hitCount {
				return a.hitCount < b.hitCount
			}
			return a.lastAccessed.Before(b.lastAccessed)
		})
	case domain.EvictionFIFO:
		victim = c.pick(func(a, b *memoryEntry) bool { return a.createdAt.Before(b.createdAt) })
	case domain.EvictionTTL:
		victim = c.pick(func(a, b *memoryEntry) bool {
			switch {
			case a.expiresAt.IsZero() && b.expiresAt.IsZero():
				return a.lastAccessed.Before(b.lastAccessed)
			case a.expiresAt.IsZero():
				return false
			case b.expiresAt.IsZero():
				return true
			default:
				return a.expiresAt.Before(b.expiresAt)
			}
		})
	case domain.EvictionRandom:
		i, n := 0, rand.IntN(len(c.entries))
		for k := range c.entries {
			if i == n {
				victim = k
				break
			}
			i++
		}
	default:
		victim = c.pick(func(a, b *memoryEntry) bool { return a.lastAccessed.Before(b.lastAccessed) })
	}

	delete(c.entries, victim)
	c.evictions++
	c.logger.Debug("Evicted entry", "key", victim, "policy", string(c.policy))
	return nil
}

// pick returns the key whose entry sorts first under less
func (c *MemoryCache) pick(less func(a, b *memoryEntry) bool) string {
	var (
		key  string
		best *memoryEntry
	)
	for k, e := range c.entries {
		if best == nil || less(e, best) {
			key, best = k, e
		}
	}
	return key
}

func (c *MemoryCache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok, nil
}

func (c *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.lookupLocked(key, c.now())
	return ok, nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*memoryEntry)
	return nil
}

func (c *MemoryCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, ok, err := c.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

func (c *MemoryCache) SetMany(_ context.Context, items map[string][]byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, v := range items {
		if err := c.setLocked(k, v, ttl, now); err != nil {
			return err
		}
	}
	return nil
}

func (c *MemoryCache) DeleteMany(_ context.Context, keys []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, k := range keys {
		if _, ok := c.entries[k]; ok {
			delete(c.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Increment adds delta to the decimal integer stored at key. A missing key
// starts from zero and takes the default TTL.
func (c *MemoryCache) Increment(_ context.Context, key string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.lookupLocked(key, now)
	if !ok {
		if err := c.setLocked(key, []byte(strconv.FormatInt(delta, 10)), 0, now); err != nil {
			return 0, err
		}
		return delta, nil
	}

	current, err := strconv.ParseInt(string(e.value), 10, 64)
	if err != nil {
		return 0, apperrors.NewCacheError("value is not an integer", err).WithContext("key", key)
	}
	current += delta
	e.value = []byte(strconv.FormatInt(current, 10))
	e.lastAccessed = now
	return current, nil
}

func (c *MemoryCache) Stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return domain.CacheStats{
		Size:      len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Capacity:  c.capacity,
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ port.Cache = (*MemoryCache)(nil)
