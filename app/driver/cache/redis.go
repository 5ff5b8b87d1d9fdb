package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"navius/app/domain"
	"navius/app/port"
	apperrors "navius/app/utils/errors"
	applog "navius/app/utils/logger"
)

const (
	defaultKeyPrefix = "navius"
	scanBatch        = 100
	statsTimeout     = 500 * time.Millisecond
)

// NewRedisClient creates a go-redis client from a redis:// URL
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfigError, "invalid redis url", err)
	}
	return redis.NewClient(opts), nil
}

// RedisCache stores entries under <prefix>:<name>:<key>. The client is
// shared and owned by the caller.
type RedisCache struct {
	client     *redis.Client
	name       string
	namespace  string
	defaultTTL time.Duration
	logger     *slog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedisCache creates a cache named name on client
func NewRedisCache(client *redis.Client, name, prefix string, defaultTTL time.Duration, logger *slog.Logger) *RedisCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisCache{
		client:     client,
		name:       name,
		namespace:  prefix + ":" + name + ":",
		defaultTTL: defaultTTL,
		logger:     applog.CacheLogger(logger).With("backend", "redis", "cache", name),
	}
}

func (c *RedisCache) key(k string) string { return c.namespace + k }

func (c *RedisCache) expiration(ttl time.Duration) time.Duration {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (c *RedisCache) Name() string { return c.name }

// Ping checks connectivity to the server
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewCacheError("redis ping failed", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.NewCacheError("redis get failed", err).WithContext("key", key)
	}
	c.hits.Add(1)
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, c.expiration(ttl)).Err(); err != nil {
		return apperrors.NewCacheError("redis set failed", err).WithContext("key", key)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Del(ctx, c.key(key)).Result()
	if err != nil {
		return false, apperrors.NewCacheError("redis delete failed", err).WithContext("key", key)
	}
	return n > 0, nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, apperrors.NewCacheError("redis exists failed", err).WithContext("key", key)
	}
	return n > 0, nil
}

// Clear removes every key in this cache's namespace
func (c *RedisCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.namespace+"*", scanBatch).Result()
		if err != nil {
			return apperrors.NewCacheError("redis scan failed", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return apperrors.NewCacheError("redis clear failed", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}

	vals, err := c.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, apperrors.NewCacheError("redis mget failed", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			c.misses.Add(1)
			continue
		}
		c.hits.Add(1)
		out[keys[i]] = []byte(s)
	}
	return out, nil
}

func (c *RedisCache) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}

	exp := c.expiration(ttl)
	pipe := c.client.Pipeline()
	for k, v := range items {
		pipe.Set(ctx, c.key(k), v, exp)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewCacheError("redis pipelined set failed", err)
	}
	return nil
}

func (c *RedisCache) DeleteMany(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}

	n, err := c.client.Del(ctx, full...).Result()
	if err != nil {
		return 0, apperrors.NewCacheError("redis delete failed", err)
	}
	return int(n), nil
}

func (c *RedisCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	n, err := c.client.IncrBy(ctx, c.key(key), delta).Result()
	if err != nil {
		return 0, apperrors.NewCacheError("redis incrby failed", err).WithContext("key", key)
	}
	return n, nil
}

// Stats reports local hit counters. Size is counted with a bounded SCAN and
// is left at zero when the server does not answer in time.
func (c *RedisCache) Stats() domain.CacheStats {
	stats := domain.CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	size, err := c.count(ctx)
	if err != nil {
		c.logger.Debug("Could not count redis keys", "error", err)
		return stats
	}
	stats.Size = size
	return stats
}

func (c *RedisCache) count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.namespace+"*", scanBatch).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

var _ port.Cache = (*RedisCache)(nil)
