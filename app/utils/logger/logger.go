// Package logger builds the slog loggers used across Navius.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

const serviceName = "navius"

// New creates a structured logger on stdout. format is "json" or "text";
// production deployments (GO_ENV=production) always log JSON.
func New(level, format string) (*slog.Logger, error) {
	return build(level, format, os.Stdout, true)
}

// NewWithWriter creates a logger with a custom writer (useful for testing)
func NewWithWriter(level, format string, writer io.Writer) (*slog.Logger, error) {
	return build(level, format, writer, false)
}

func build(level, format string, writer io.Writer, rfc3339 bool) (*slog.Logger, error) {
	logLevel, err := parseLogLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
	}
	if rfc3339 {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		}
	}

	var handler slog.Handler
	if useJSON(format) {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler).With("service", serviceName), nil
}

// WithComponent tags every record with the emitting component
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// WithRequest creates a logger with request context
func WithRequest(logger *slog.Logger, requestID, method, path string) *slog.Logger {
	return logger.With(
		"request_id", requestID,
		"method", method,
		"path", path,
	)
}

// LogError logs err under msg with additional key/value pairs
func LogError(logger *slog.Logger, err error, msg string, keysAndValues ...any) {
	args := append([]any{"error", err}, keysAndValues...)
	logger.Error(msg, args...)
}

// LogDuration logs how long operation took since start
func LogDuration(logger *slog.Logger, start time.Time, operation string, keysAndValues ...any) {
	args := append([]any{
		"operation", operation,
		"duration_ms", time.Since(start).Milliseconds(),
	}, keysAndValues...)
	logger.Info("Operation completed", args...)
}

// DatabaseLogger tags records from the postgres drivers
func DatabaseLogger(logger *slog.Logger) *slog.Logger {
	return WithComponent(logger, "database")
}

// CacheLogger tags records from the cache providers
func CacheLogger(logger *slog.Logger) *slog.Logger {
	return WithComponent(logger, "cache")
}

// Discard returns a logger that drops everything. Used by tests and by
// components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

func useJSON(format string) bool {
	if isProduction() {
		return true
	}
	return strings.EqualFold(format, "json")
}

func isProduction() bool {
	env := strings.ToLower(os.Getenv("GO_ENV"))
	return env == "production" || env == "prod"
}
