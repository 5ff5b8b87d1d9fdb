package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "navius/app/utils/errors"
	"navius/app/utils/logger"
)

func newTestRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	client, mr := newTestRedisClient(t)
	return NewRedisCache(client, "pets", "navius", time.Minute, logger.Discard()), mr
}

func TestRedisCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))

	raw, err := mr.Get("navius:pets:a")
	require.NoError(t, err)
	assert.Equal(t, "1", raw)
	assert.Equal(t, time.Minute, mr.TTL("navius:pets:a"))

	v, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	_, ok, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestRedisCache_TTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "forever", []byte("1"), -1))
	require.NoError(t, c.Set(ctx, "short", []byte("1"), 5*time.Second))

	assert.Zero(t, mr.TTL("navius:pets:forever"))
	assert.Equal(t, 5*time.Second, mr.TTL("navius:pets:short"))

	mr.FastForward(10 * time.Second)

	_, ok, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Exists(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCache_ClearOnlyTouchesNamespace(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("1"), 0))
	require.NoError(t, mr.Set("navius:users:a", "x"))

	require.NoError(t, c.Clear(ctx))

	assert.False(t, mr.Exists("navius:pets:a"))
	assert.False(t, mr.Exists("navius:pets:b"))
	assert.True(t, mr.Exists("navius:users:a"))
}

func TestRedisCache_BatchOperations(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)

	require.NoError(t, c.SetMany(ctx, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}, 0))

	got, err := c.GetMany(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)

	n, err := c.DeleteMany(ctx, []string{"a", "c"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	deleted, err := c.Delete(ctx, "b")
	require.NoError(t, err)
	assert.True(t, deleted)

	empty, err := c.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRedisCache_Increment(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)

	n, err := c.Increment(ctx, "counter", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = c.Increment(ctx, "counter", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestRedisCache_ServerErrors(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Ping(ctx))

	mr.SetError("ERR injected failure")

	_, _, err := c.Get(ctx, "a")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCacheError))
	assert.Error(t, c.Set(ctx, "a", []byte("1"), 0))
	assert.Error(t, c.Ping(ctx))

	mr.SetError("")
	assert.NoError(t, c.Ping(ctx))
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient("not-a-url")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigError))

	client, err := NewRedisClient("redis://localhost:6379/0")
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
