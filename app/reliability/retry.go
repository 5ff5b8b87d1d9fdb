package reliability

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"navius/app/config"
)

// StatusError is an upstream response with a non-success HTTP status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Policy retries a call with linear or jittered exponential backoff
type Policy struct {
	MaxAttempts      int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	Exponential      bool
	RetryStatusCodes []int

	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)

	jitter func() float64
}

// PolicyFrom converts the reliability.retry section. A disabled retry
// section yields a single-attempt policy.
func PolicyFrom(c config.RetryConfig) Policy {
	attempts := c.MaxAttempts
	if !c.Enabled || attempts < 1 {
		attempts = 1
	}
	return Policy{
		MaxAttempts:      attempts,
		BaseDelay:        time.Duration(c.BaseDelayMS) * time.Millisecond,
		MaxDelay:         time.Duration(c.MaxDelayMS) * time.Millisecond,
		Exponential:      c.UseExponentialBackoff,
		RetryStatusCodes: c.RetryStatusCodes,
	}
}

// Backoff returns the wait after the given zero-based attempt. Exponential
// delays are base*2^attempt scaled by a jitter in [0.5, 1.5) and capped at
// MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	if !p.Exponential {
		return p.BaseDelay
	}

	jitter := rand.Float64
	if p.jitter != nil {
		jitter = p.jitter
	}

	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt)) * (0.5 + jitter())
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Retryable classifies err. Status errors retry only for configured codes
// and permanent errors never retry.
func (p Policy) Retryable(err error) bool {
	if err == nil || IsPermanent(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return slices.Contains(p.RetryStatusCodes, statusErr.StatusCode)
	}
	return true
}

// Do calls fn until it succeeds, returns a non-retryable error, attempts run
// out, or ctx is done. The last error is returned with any Permanent marker
// removed.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !p.Retryable(err) || attempt == attempts-1 {
			break
		}

		delay := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted after %d attempts: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}
	}

	var p2 *permanentError
	if errors.As(err, &p2) {
		return p2.err
	}
	return err
}
