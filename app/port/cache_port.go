package port

//go:generate mockgen -source=cache_port.go -destination=../mocks/mock_cache_port.go

import (
	"context"
	"time"

	"navius/app/domain"
)

// Cache is a byte-oriented key/value cache. A zero ttl means the cache's
// default TTL and a negative ttl means the entry never expires.
type Cache interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error
	DeleteMany(ctx context.Context, keys []string) (int, error)
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	Stats() domain.CacheStats
}

// CacheProvider builds Cache instances for a backend
type CacheProvider interface {
	Name() string
	Supports(cfg domain.CacheConfig) bool
	Create(ctx context.Context, cfg domain.CacheConfig) (Cache, error)
}
