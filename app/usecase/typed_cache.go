package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"navius/app/port"
	apperrors "navius/app/utils/errors"
)

// TypedCache stores values of T as JSON in a port.Cache. Undecodable
// entries are treated as misses.
type TypedCache[T any] struct {
	cache  port.Cache
	logger *slog.Logger
}

func NewTypedCache[T any](c port.Cache, logger *slog.Logger) *TypedCache[T] {
	return &TypedCache[T]{
		cache:  c,
		logger: logger.With("component", "typed_cache", "cache", c.Name()),
	}
}

func (t *TypedCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T

	raw, ok, err := t.cache.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return zero, false, nil
	}
	return v, true, nil
}

func (t *TypedCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewCacheError("failed to encode cache value", err).WithContext("key", key)
	}
	return t.cache.Set(ctx, key, raw, ttl)
}

func (t *TypedCache[T]) Delete(ctx context.Context, key string) (bool, error) {
	return t.cache.Delete(ctx, key)
}
