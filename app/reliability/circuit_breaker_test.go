package reliability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "navius/app/utils/errors"
	"navius/app/utils/logger"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(t *testing.T, cfg BreakerConfig, opts ...BreakerOption) (*CircuitBreaker, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]BreakerOption{WithBreakerClock(clock.Now), WithBreakerLogger(logger.Discard())}, opts...)
	return NewCircuitBreaker(cfg, opts...), clock
}

func windowConfig() BreakerConfig {
	return BreakerConfig{
		Name:               "test",
		Window:             time.Minute,
		FailurePercentage:  50,
		FailureStatusCodes: []int{500, 502, 503, 504},
		ResetTimeout:       30 * time.Second,
		SuccessThreshold:   2,
	}
}

func TestCircuitBreaker_WindowMode(t *testing.T) {
	cb, clock := newTestBreaker(t, windowConfig())

	cb.RecordSuccess()
	cb.RecordSuccess()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State(), "a quarter failing stays closed")

	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State(), "two in five failing stays closed")

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State(), "half failing opens")

	err := cb.Allow()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)

	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, 30*time.Second, openErr.ResetTimeout)
	assert.InDelta(t, 50.0, openErr.FailureRate, 0.01)

	clock.Advance(10 * time.Second)
	require.ErrorAs(t, cb.Allow(), &openErr)
	assert.Equal(t, 20*time.Second, openErr.RetryAfter)
}

func TestCircuitBreaker_WindowPrunesOldResults(t *testing.T) {
	cb, clock := newTestBreaker(t, windowConfig())

	cb.RecordSuccess()
	cb.RecordFailure()
	cb.Reset()

	for i := 0; i < 3; i++ {
		cb.RecordSuccess()
	}
	clock.Advance(2 * time.Minute)

	// older successes no longer dilute the rate
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, 1, cb.Snapshot().WindowRequests)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []string
	)
	hook := WithStateChangeHook(func(_ string, from, to State) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, from.String()+"->"+to.String())
	})
	cb, clock := newTestBreaker(t, windowConfig(), hook)

	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(30 * time.Second)
	require.NoError(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, StateHalfOpen, cb.State())
	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{"CLOSED->OPEN", "OPEN->HALF-OPEN", "HALF-OPEN->CLOSED"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(t, windowConfig())

	cb.RecordFailure()
	clock.Advance(31 * time.Second)
	require.NoError(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.Error(t, cb.Allow())
}

func TestCircuitBreaker_ConsecutiveMode(t *testing.T) {
	cfg := windowConfig()
	cfg.UseConsecutiveFailures = true
	cfg.FailureThreshold = 3
	cb, _ := newTestBreaker(t, cfg)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State(), "success resets the streak")

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, 3, cb.Snapshot().ConsecutiveFailures)
}

func TestCircuitBreaker_Execute(t *testing.T) {
	ctx := context.Background()
	cb, _ := newTestBreaker(t, windowConfig())

	err := cb.Execute(ctx, func(context.Context) error {
		return &StatusError{StatusCode: 404}
	})
	assert.Error(t, err)
	assert.Equal(t, StateClosed, cb.State(), "404 is not a failure status")

	err = cb.Execute(ctx, func(context.Context) error {
		return apperrors.NewNotFound("pet")
	})
	assert.Error(t, err)
	assert.Equal(t, StateClosed, cb.State())

	boom := errors.New("connection reset")
	err = cb.Execute(ctx, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateClosed, cb.State())

	_ = cb.Execute(ctx, func(context.Context) error { return boom })
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err = cb.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_IsFailureStatus(t *testing.T) {
	cb, _ := newTestBreaker(t, windowConfig())

	assert.True(t, cb.IsFailureStatus(500))
	assert.True(t, cb.IsFailureStatus(503))
	assert.False(t, cb.IsFailureStatus(404))
	assert.False(t, cb.IsFailureStatus(200))
}

func TestCircuitBreaker_Snapshot(t *testing.T) {
	cb, _ := newTestBreaker(t, windowConfig())

	snap := cb.Snapshot()
	assert.Equal(t, "CLOSED", snap.State)
	assert.Nil(t, snap.OpenedAt)

	cb.RecordFailure()
	snap = cb.Snapshot()
	assert.Equal(t, "OPEN", snap.State)
	assert.NotNil(t, snap.OpenedAt)
	assert.InDelta(t, 100.0, snap.FailureRate, 0.01)
}
