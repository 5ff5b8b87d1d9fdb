package middleware

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"navius/app/reliability"
	apperrors "navius/app/utils/errors"
)

// CircuitBreaker rejects requests while cb is open and records each response
// status. A status in the breaker's failure codes counts as a failure.
func CircuitBreaker(cb *reliability.CircuitBreaker, metrics *reliability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := cb.Allow(); err != nil {
				var openErr *reliability.OpenError
				if errors.As(err, &openErr) && openErr.RetryAfter > 0 {
					seconds := int(math.Ceil(openErr.RetryAfter.Seconds()))
					c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				}
				return apperrors.Wrap(apperrors.ErrCodeCircuitOpen, "service temporarily unavailable", err)
			}

			err := next(c)
			status := c.Response().Status
			if err != nil {
				status = StatusOf(err)
			}
			if cb.IsFailureStatus(status) {
				cb.RecordFailure()
			} else {
				cb.RecordSuccess()
			}
			if metrics != nil {
				metrics.ObserveBreaker(cb.Name(), cb.State())
			}
			return err
		}
	}
}

// ConcurrencyLimit rejects requests while every slot of limiter is taken
func ConcurrencyLimit(limiter *reliability.ConcurrencyLimiter, metrics *reliability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			release, ok := limiter.TryAcquire()
			if !ok {
				return apperrors.New(apperrors.ErrCodeServiceUnavailable, "too many concurrent requests").
					WithContext("max_concurrent_requests", limiter.Max())
			}
			if metrics != nil {
				metrics.SetInFlight(limiter.InFlight())
			}
			defer func() {
				release()
				if metrics != nil {
					metrics.SetInFlight(limiter.InFlight())
				}
			}()
			return next(c)
		}
	}
}

// Timeout bounds the request context by d. A handler failing because the
// deadline passed yields 504.
func Timeout(d time.Duration, metrics *reliability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if errors.Is(err, context.DeadlineExceeded) || (err == nil && !c.Response().Committed && errors.Is(ctx.Err(), context.DeadlineExceeded)) {
				if metrics != nil {
					metrics.RecordTimeout()
				}
				return apperrors.Wrapf(apperrors.ErrCodeTimeout, context.DeadlineExceeded, "request timed out after %s", d)
			}
			return err
		}
	}
}
