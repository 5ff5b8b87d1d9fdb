package reliability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrencyLimiter_TryAcquire(t *testing.T) {
	l := NewConcurrencyLimiter(2)
	assert.Equal(t, int64(2), l.Max())

	r1, ok := l.TryAcquire()
	require.True(t, ok)
	r2, ok := l.TryAcquire()
	require.True(t, ok)
	assert.Equal(t, int64(2), l.InFlight())

	_, ok = l.TryAcquire()
	assert.False(t, ok)

	r1()
	r1()
	assert.Equal(t, int64(1), l.InFlight(), "release is idempotent")

	r3, ok := l.TryAcquire()
	require.True(t, ok)
	r2()
	r3()
	assert.Zero(t, l.InFlight())
}

func TestConcurrencyLimiter_AcquireHonorsContext(t *testing.T) {
	l := NewConcurrencyLimiter(1)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release2, err := l.Acquire(context.Background())
	require.NoError(t, err)
	release2()
}
