package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"navius/app/metrics"
	"navius/app/port"
	apperrors "navius/app/utils/errors"
)

// Resource types cached by the service.
const (
	ResourcePet         = "pet"
	ResourcePetstorePet = "petstore_pet"
)

// ResourceCacheStats is the per-resource view served by the cache admin endpoint
type ResourceCacheStats struct {
	ResourceType  string            `json:"resource_type"`
	Size          int               `json:"size"`
	Hits          uint64            `json:"hits"`
	Misses        uint64            `json:"misses"`
	Evictions     uint64            `json:"evictions"`
	HitRatio      float64           `json:"hit_ratio"`
	Capacity      int               `json:"capacity,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	CustomMetrics map[string]uint64 `json:"custom_metrics,omitempty"`
}

// CacheRegistry holds one cache per resource type and deduplicates
// concurrent fetches of the same key.
type CacheRegistry struct {
	enabled     bool
	ttl         time.Duration
	maxCapacity int
	createdAt   time.Time
	logger      *slog.Logger

	mu     sync.RWMutex
	caches map[string]port.Cache
	group  singleflight.Group
}

func NewCacheRegistry(enabled bool, ttl time.Duration, maxCapacity int, logger *slog.Logger) *CacheRegistry {
	return &CacheRegistry{
		enabled:     enabled,
		ttl:         ttl,
		maxCapacity: maxCapacity,
		createdAt:   time.Now(),
		logger:      logger.With("component", "cache_registry"),
		caches:      make(map[string]port.Cache),
	}
}

func (r *CacheRegistry) Enabled() bool { return r.enabled }

func (r *CacheRegistry) TTL() time.Duration { return r.ttl }

func (r *CacheRegistry) MaxCapacity() int { return r.maxCapacity }

// Register sets the cache for resourceType, replacing any previous one
func (r *CacheRegistry) Register(resourceType string, c port.Cache) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caches[resourceType] = c
}

// Cache returns the cache for resourceType when caching is enabled
func (r *CacheRegistry) Cache(resourceType string) (port.Cache, bool) {
	if !r.enabled {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caches[resourceType]
	return c, ok
}

// ResourceTypes lists registered resource types in sorted order
func (r *CacheRegistry) ResourceTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.caches))
	for k := range r.caches {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Key is the cache key of id within resourceType
func (r *CacheRegistry) Key(resourceType, id string) string {
	return resourceType + ":" + id
}

// GetOrFetch returns the cached value for id or calls fetch, at most once
// per key at a time, and caches its result. Fetch errors are not cached and
// cache failures never fail the call.
func GetOrFetch[T any](ctx context.Context, r *CacheRegistry, resourceType, id string, fetch func(context.Context) (T, error)) (T, error) {
	c, ok := r.Cache(resourceType)
	if !ok {
		return fetch(ctx)
	}

	typed := NewTypedCache[T](c, r.logger)
	key := r.Key(resourceType, id)

	v, found, err := typed.Get(ctx, key)
	if err != nil {
		r.logger.Warn("Cache read failed", "resource_type", resourceType, "key", key, "error", err)
	}
	if found {
		metrics.RecordCacheHit(resourceType)
		return v, nil
	}
	metrics.RecordCacheMiss(resourceType)

	res, err, shared := r.group.Do(key, func() (any, error) {
		fetched, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := typed.Set(ctx, key, fetched, r.ttl); err != nil {
			r.logger.Warn("Cache write failed", "resource_type", resourceType, "key", key, "error", err)
		}
		return fetched, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		r.logger.Debug("Shared in-flight fetch", "resource_type", resourceType, "key", key)
	}
	out, _ := res.(T)
	return out, nil
}

// Put stores v for id. It is a no-op when resourceType is not cached.
func Put[T any](ctx context.Context, r *CacheRegistry, resourceType, id string, v T) error {
	c, ok := r.Cache(resourceType)
	if !ok {
		return nil
	}
	return NewTypedCache[T](c, r.logger).Set(ctx, r.Key(resourceType, id), v, r.ttl)
}

// Invalidate drops id from the resourceType cache
func (r *CacheRegistry) Invalidate(ctx context.Context, resourceType, id string) error {
	c, ok := r.Cache(resourceType)
	if !ok {
		return nil
	}
	_, err := c.Delete(ctx, r.Key(resourceType, id))
	return err
}

// Clear empties the cache of one resource type
func (r *CacheRegistry) Clear(ctx context.Context, resourceType string) error {
	r.mu.RLock()
	c, ok := r.caches[resourceType]
	r.mu.RUnlock()
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("cache %q", resourceType))
	}

	if err := c.Clear(ctx); err != nil {
		return err
	}
	r.logger.Info("Cache cleared", "resource_type", resourceType)
	return nil
}

// Stats reports every registered resource cache
func (r *CacheRegistry) Stats() []ResourceCacheStats {
	uptime := int64(time.Since(r.createdAt).Seconds())

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ResourceCacheStats, 0, len(r.caches))
	for name, c := range r.caches {
		s := c.Stats()
		out = append(out, ResourceCacheStats{
			ResourceType:  name,
			Size:          s.Size,
			Hits:          s.Hits,
			Misses:        s.Misses,
			Evictions:     s.Evictions,
			HitRatio:      s.HitRatio(),
			Capacity:      s.Capacity,
			UptimeSeconds: uptime,
			CustomMetrics: s.CustomMetrics,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResourceType < out[j].ResourceType })
	return out
}
