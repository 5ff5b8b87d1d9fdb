package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"navius/app/metrics"
	"navius/app/reliability"
	apperrors "navius/app/utils/errors"
)

// Metrics records request counts and latency per route template. Requests
// that matched no route are labelled "unmatched".
func Metrics(m *reliability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = StatusOf(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			metrics.RecordHTTPRequest(c.Request().Method, route, status, time.Since(start).Seconds())
			// Timeout has already counted its own outcome
			if m != nil && !apperrors.HasCode(err, apperrors.ErrCodeTimeout) {
				m.RecordStatus(status)
			}
			return err
		}
	}
}
