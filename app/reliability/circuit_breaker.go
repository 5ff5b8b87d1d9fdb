// Package reliability holds the fault-tolerance primitives shared by the HTTP
// middleware and the upstream gateway: circuit breaking, retry with backoff,
// concurrency limiting, and the counters that report on them.
package reliability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"navius/app/config"
	apperrors "navius/app/utils/errors"
)

// State is a circuit breaker state. The numeric value is the gauge value.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF-OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrCircuitOpen is matched by every *OpenError
var ErrCircuitOpen = errors.New("circuit breaker is open")

// OpenError is returned by Allow while the breaker rejects calls
type OpenError struct {
	Name         string
	ResetTimeout time.Duration
	RetryAfter   time.Duration
	FailureRate  float64
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open (failure rate %.1f%%, retry after %s)", e.Name, e.FailureRate, e.RetryAfter)
}

func (e *OpenError) Is(target error) bool { return target == ErrCircuitOpen }

// BreakerConfig configures a CircuitBreaker. In window mode the breaker opens
// when the failure percentage over Window reaches FailurePercentage; in
// consecutive mode it opens after FailureThreshold failures in a row.
type BreakerConfig struct {
	Name                   string
	Window                 time.Duration
	FailurePercentage      int
	FailureStatusCodes     []int
	ResetTimeout           time.Duration
	SuccessThreshold       int
	UseConsecutiveFailures bool
	FailureThreshold       int
}

// BreakerConfigFrom converts the reliability.circuit_breaker section
func BreakerConfigFrom(name string, c config.CircuitBreakerConfig) BreakerConfig {
	return BreakerConfig{
		Name:                   name,
		Window:                 time.Duration(c.WindowSeconds) * time.Second,
		FailurePercentage:      c.FailurePercentage,
		FailureStatusCodes:     c.FailureStatusCodes,
		ResetTimeout:           time.Duration(c.ResetTimeoutMS) * time.Millisecond,
		SuccessThreshold:       c.SuccessThreshold,
		UseConsecutiveFailures: c.UseConsecutiveFailures,
		FailureThreshold:       c.FailureThreshold,
	}
}

// BreakerSnapshot is a read-only view of breaker state
type BreakerSnapshot struct {
	Name                string     `json:"name"`
	State               string     `json:"state"`
	FailureRate         float64    `json:"failure_rate"`
	WindowRequests      int        `json:"window_requests"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	HalfOpenSuccesses   int        `json:"half_open_successes"`
	OpenedAt            *time.Time `json:"opened_at,omitempty"`
}

type callResult struct {
	at     time.Time
	failed bool
}

// CircuitBreaker is safe for concurrent use
type CircuitBreaker struct {
	cfg           BreakerConfig
	now           func() time.Time
	logger        *slog.Logger
	onStateChange func(name string, from, to State)

	mu                  sync.Mutex
	state               State
	openedAt            time.Time
	history             []callResult
	consecutiveFailures int
	halfOpenSuccesses   int
}

// BreakerOption customizes a CircuitBreaker
type BreakerOption func(*CircuitBreaker)

// WithBreakerClock replaces time.Now
func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// WithBreakerLogger sets the logger used for state transitions
func WithBreakerLogger(logger *slog.Logger) BreakerOption {
	return func(cb *CircuitBreaker) { cb.logger = logger }
}

// WithStateChangeHook is called, outside the breaker lock, after every transition
func WithStateChangeHook(fn func(name string, from, to State)) BreakerOption {
	return func(cb *CircuitBreaker) { cb.onStateChange = fn }
}

func NewCircuitBreaker(cfg BreakerConfig, opts ...BreakerOption) *CircuitBreaker {
	if cfg.SuccessThreshold < 1 {
		cfg.SuccessThreshold = 1
	}
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}

	cb := &CircuitBreaker{
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cb)
	}
	cb.logger = cb.logger.With("component", "circuit_breaker", "breaker", cfg.Name)
	return cb
}

func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

// Allow admits or rejects a call. Once the reset timeout has elapsed an open
// breaker moves to half-open and admits calls again.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()

	if cb.state != StateOpen {
		cb.mu.Unlock()
		return nil
	}

	now := cb.now()
	elapsed := now.Sub(cb.openedAt)
	if elapsed >= cb.cfg.ResetTimeout {
		from := cb.transitionLocked(StateHalfOpen, now)
		cb.mu.Unlock()
		cb.notify(from, StateHalfOpen)
		return nil
	}

	err := &OpenError{
		Name:         cb.cfg.Name,
		ResetTimeout: cb.cfg.ResetTimeout,
		RetryAfter:   cb.cfg.ResetTimeout - elapsed,
		FailureRate:  cb.failureRateLocked(),
	}
	cb.mu.Unlock()
	return err
}

// RecordSuccess records a successful call
func (cb *CircuitBreaker) RecordSuccess() {
	cb.record(false)
}

// RecordFailure records a failed call
func (cb *CircuitBreaker) RecordFailure() {
	cb.record(true)
}

func (cb *CircuitBreaker) record(failed bool) {
	cb.mu.Lock()

	now := cb.now()
	if !cb.cfg.UseConsecutiveFailures {
		cb.history = append(cb.history, callResult{at: now, failed: failed})
		cb.pruneLocked(now)
	}

	from, to := cb.state, cb.state
	if failed {
		to = cb.onFailureLocked(now)
	} else {
		to = cb.onSuccessLocked(now)
	}
	cb.mu.Unlock()

	if from != to {
		cb.notify(from, to)
	}
}

func (cb *CircuitBreaker) onFailureLocked(now time.Time) State {
	switch cb.state {
	case StateClosed:
		cb.consecutiveFailures++
		if cb.cfg.UseConsecutiveFailures {
			if cb.consecutiveFailures >= cb.cfg.FailureThreshold {
				cb.logger.Warn("Circuit breaker opening", "reason", "failure threshold reached", "failures", cb.consecutiveFailures)
				cb.transitionLocked(StateOpen, now)
			}
			return cb.state
		}
		if rate := cb.failureRateLocked(); rate >= float64(cb.cfg.FailurePercentage) {
			cb.logger.Warn("Circuit breaker opening", "reason", "failure percentage reached", "failure_rate", rate)
			cb.transitionLocked(StateOpen, now)
		}
	case StateHalfOpen:
		cb.logger.Warn("Circuit breaker reopening", "reason", "failure while half-open")
		cb.transitionLocked(StateOpen, now)
	case StateOpen:
		cb.openedAt = now
	}
	return cb.state
}

func (cb *CircuitBreaker) onSuccessLocked(now time.Time) State {
	switch cb.state {
	case StateClosed:
		cb.consecutiveFailures = 0
	case StateHalfOpen:
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.cfg.SuccessThreshold {
			cb.logger.Info("Circuit breaker closing", "reason", "success threshold reached")
			cb.transitionLocked(StateClosed, now)
		}
	case StateOpen:
		if now.Sub(cb.openedAt) >= cb.cfg.ResetTimeout {
			cb.transitionLocked(StateHalfOpen, now)
			cb.halfOpenSuccesses = 1
		}
	}
	return cb.state
}

// transitionLocked moves to state and returns the previous state
func (cb *CircuitBreaker) transitionLocked(to State, now time.Time) State {
	from := cb.state
	cb.state = to

	switch to {
	case StateOpen:
		cb.openedAt = now
		cb.halfOpenSuccesses = 0
	case StateHalfOpen:
		cb.halfOpenSuccesses = 0
	case StateClosed:
		cb.consecutiveFailures = 0
		cb.halfOpenSuccesses = 0
		cb.history = cb.history[:0]
		cb.openedAt = time.Time{}
	}
	return from
}

func (cb *CircuitBreaker) notify(from, to State) {
	cb.logger.Info("Circuit breaker state transition", "from", from.String(), "to", to.String())
	if cb.onStateChange != nil {
		cb.onStateChange(cb.cfg.Name, from, to)
	}
}

func (cb *CircuitBreaker) pruneLocked(now time.Time) {
	if cb.cfg.Window <= 0 {
		return
	}
	cutoff := now.Add(-cb.cfg.Window)
	i := 0
	for i < len(cb.history) && cb.history[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		cb.history = append(cb.history[:0], cb.history[i:]...)
	}
}

func (cb *CircuitBreaker) failureRateLocked() float64 {
	if len(cb.history) == 0 {
		return 0
	}
	failures := 0
	for _, r := range cb.history {
		if r.failed {
			failures++
		}
	}
	return float64(failures) / float64(len(cb.history)) * 100
}

// IsFailureStatus reports whether an HTTP status counts as a failure
func (cb *CircuitBreaker) IsFailureStatus(code int) bool {
	return slices.Contains(cb.cfg.FailureStatusCodes, code)
}

// IsFailure classifies a call error. Errors carrying an HTTP status count
// only when the status is a failure status; other errors always count.
func (cb *CircuitBreaker) IsFailure(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return cb.IsFailureStatus(statusErr.StatusCode)
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return cb.IsFailureStatus(appErr.StatusCode)
	}
	return true
}

// Execute runs fn when the breaker admits it and records the outcome
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.Allow(); err != nil {
		return err
	}

	err := fn(ctx)
	if cb.IsFailure(err) {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return err
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Snapshot() BreakerSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.pruneLocked(cb.now())
	snap := BreakerSnapshot{
		Name:                cb.cfg.Name,
		State:               cb.state.String(),
		FailureRate:         cb.failureRateLocked(),
		WindowRequests:      len(cb.history),
		ConsecutiveFailures: cb.consecutiveFailures,
		HalfOpenSuccesses:   cb.halfOpenSuccesses,
	}
	if !cb.openedAt.IsZero() {
		at := cb.openedAt
		snap.OpenedAt = &at
	}
	return snap
}

// Reset forces the breaker closed
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.transitionLocked(StateClosed, cb.now())
	cb.mu.Unlock()

	if from != StateClosed {
		cb.notify(from, StateClosed)
	}
}
