package reliability

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimiter bounds the number of calls in flight
type ConcurrencyLimiter struct {
	sem      *semaphore.Weighted
	max      int64
	inFlight atomic.Int64
}

func NewConcurrencyLimiter(maxInFlight int) *ConcurrencyLimiter {
	n := int64(max(maxInFlight, 1))
	return &ConcurrencyLimiter{sem: semaphore.NewWeighted(n), max: n}
}

// TryAcquire takes a slot without waiting. The returned release is
// idempotent.
func (l *ConcurrencyLimiter) TryAcquire() (func(), bool) {
	if !l.sem.TryAcquire(1) {
		return func() {}, false
	}
	return l.acquired(), true
}

// Acquire waits for a slot or for ctx to end
func (l *ConcurrencyLimiter) Acquire(ctx context.Context) (func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return func() {}, err
	}
	return l.acquired(), nil
}

func (l *ConcurrencyLimiter) acquired() func() {
	l.inFlight.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			l.inFlight.Add(-1)
			l.sem.Release(1)
		})
	}
}

func (l *ConcurrencyLimiter) InFlight() int64 { return l.inFlight.Load() }

func (l *ConcurrencyLimiter) Max() int64 { return l.max }
