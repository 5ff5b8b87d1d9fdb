package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "info text", level: "info", format: "text"},
		{name: "debug json", level: "debug", format: "json"},
		{name: "warn", level: "warn", format: "text"},
		{name: "error", level: "error", format: "json"},
		{name: "empty level defaults to info", level: "", format: "text"},
		{name: "invalid level", level: "verbose", format: "text", wantErr: true},
		{name: "unknown format falls back to text", level: "info", format: "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer

	logger, err := NewWithWriter("info", "json", &buf)
	require.NoError(t, err)

	logger.Info("pet created", "pet_id", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "pet created", line["msg"])
	assert.Equal(t, "navius", line["service"])
	assert.Equal(t, "abc", line["pet_id"])
}

func TestNewWithWriter_TextFormat(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer

	logger, err := NewWithWriter("info", "TEXT", &buf)
	require.NoError(t, err)
	logger.Info("hello")

	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
	assert.Contains(t, buf.String(), "service=navius")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input     string
		expected  slog.Level
		wantError bool
	}{
		{input: "debug", expected: slog.LevelDebug},
		{input: "info", expected: slog.LevelInfo},
		{input: "warn", expected: slog.LevelWarn},
		{input: "warning", expected: slog.LevelWarn},
		{input: "error", expected: slog.LevelError},
		{input: "DEBUG", expected: slog.LevelDebug},
		{input: "trace", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLogLevel(tt.input)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestNewWithWriter_ProductionForcesJSON(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	var buf bytes.Buffer

	logger, err := NewWithWriter("info", "text", &buf)
	require.NoError(t, err)
	logger.Info("hello")

	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		envValue string
		expected bool
	}{
		{"production", true},
		{"prod", true},
		{"PRODUCTION", true},
		{"development", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("GO_ENV", tt.envValue)
			assert.Equal(t, tt.expected, isProduction())
		})
	}
}

func TestContextHelpers(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer

	base, err := NewWithWriter("info", "text", &buf)
	require.NoError(t, err)

	WithRequest(base, "req-789", "GET", "/v1/pets").Info("one")
	DatabaseLogger(base).Info("two")
	CacheLogger(base).Info("three")

	output := buf.String()
	assert.Contains(t, output, "request_id=req-789")
	assert.Contains(t, output, "path=/v1/pets")
	assert.Contains(t, output, "component=database")
	assert.Contains(t, output, "component=cache")
}

func TestLogErrorAndDuration(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer

	logger, err := NewWithWriter("info", "text", &buf)
	require.NoError(t, err)

	LogError(logger, assert.AnError, "lookup failed", "key", "pet:1")
	LogDuration(logger, time.Now().Add(-100*time.Millisecond), "migrate up", "applied", 2)

	output := buf.String()
	assert.Contains(t, output, "lookup failed")
	assert.Contains(t, output, "key=pet:1")
	assert.Contains(t, output, "Operation completed")
	assert.Contains(t, output, "duration_ms")
	assert.Contains(t, output, "applied=2")
}

func TestWithComponent(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer

	base, err := NewWithWriter("info", "text", &buf)
	require.NoError(t, err)

	WithComponent(base, "cache").Info("evicted", "key", "pet:1")

	output := buf.String()
	assert.Contains(t, output, "component=cache")
	assert.Contains(t, output, "key=pet:1")
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name       string
		logLevel   string
		logMessage func(*slog.Logger)
		shouldShow bool
	}{
		{"debug with debug level", "debug", func(l *slog.Logger) { l.Debug("m") }, true},
		{"debug with info level", "info", func(l *slog.Logger) { l.Debug("m") }, false},
		{"warn with error level", "error", func(l *slog.Logger) { l.Warn("m") }, false},
		{"error with error level", "error", func(l *slog.Logger) { l.Error("m") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewWithWriter(tt.logLevel, "text", &buf)
			require.NoError(t, err)

			tt.logMessage(logger)

			if tt.shouldShow {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}
