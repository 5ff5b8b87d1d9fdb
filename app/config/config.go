// Package config loads the layered Navius configuration: YAML files from the
// config directory overlaid by NAVIUS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server           ServerConfig           `mapstructure:"server"`
	App              AppConfig              `mapstructure:"app"`
	Logging          LoggingConfig          `mapstructure:"logging"`
	API              APIConfig              `mapstructure:"api"`
	Database         DatabaseConfig         `mapstructure:"database"`
	Cache            CacheConfig            `mapstructure:"cache"`
	Auth             AuthConfig             `mapstructure:"auth"`
	Reliability      ReliabilityConfig      `mapstructure:"reliability"`
	Environment      Environment            `mapstructure:"environment"`
	EndpointSecurity EndpointSecurityConfig `mapstructure:"endpoint_security"`
	Features         FeaturesConfig         `mapstructure:"features"`
	Telemetry        TelemetryConfig        `mapstructure:"telemetry"`
	OpenAPI          OpenAPIConfig          `mapstructure:"openapi"`
}

type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	Protocol       string `mapstructure:"protocol"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Version     string `mapstructure:"version"`
	LogLevel    string `mapstructure:"log_level"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig describes the upstream Petstore API.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Version        string `mapstructure:"version"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Enabled               bool   `mapstructure:"enabled"`
	URL                   string `mapstructure:"url"`
	MaxConnections        int32  `mapstructure:"max_connections"`
	MinConnections        int32  `mapstructure:"min_connections"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds"`
	IdleTimeoutSeconds    int    `mapstructure:"idle_timeout_seconds"`
	MaxLifetimeSeconds    int    `mapstructure:"max_lifetime_seconds"`
}

type CacheConfig struct {
	Enabled                  bool   `mapstructure:"enabled"`
	Provider                 string `mapstructure:"provider"`
	TTLSeconds               int    `mapstructure:"ttl_seconds"`
	MaxCapacity              int    `mapstructure:"max_capacity"`
	EvictionPolicy           string `mapstructure:"eviction_policy"`
	RedisURL                 string `mapstructure:"redis_url"`
	ReconnectIntervalSeconds int    `mapstructure:"reconnect_interval_seconds"`
}

type AuthConfig struct {
	Enabled      bool                `mapstructure:"enabled"`
	Debug        bool                `mapstructure:"debug"`
	Issuer       string              `mapstructure:"issuer"`
	Audience     string              `mapstructure:"audience"`
	Secret       string              `mapstructure:"secret"`
	RoleMappings map[string][]string `mapstructure:"role_mappings"`
}

// Role mapping categories.
const (
	RoleCategoryAdmin      = "admin"
	RoleCategoryReadOnly   = "read_only"
	RoleCategoryFullAccess = "full_access"
)

type ReliabilityConfig struct {
	Retry          RetryConfig          `mapstructure:"retry"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Timeout        TimeoutConfig        `mapstructure:"timeout"`
	Concurrency    ConcurrencyConfig    `mapstructure:"concurrency"`
}

type RetryConfig struct {
	Enabled               bool  `mapstructure:"enabled"`
	MaxAttempts           int   `mapstructure:"max_attempts"`
	BaseDelayMS           int   `mapstructure:"base_delay_ms"`
	MaxDelayMS            int   `mapstructure:"max_delay_ms"`
	UseExponentialBackoff bool  `mapstructure:"use_exponential_backoff"`
	RetryStatusCodes      []int `mapstructure:"retry_status_codes"`
}

type CircuitBreakerConfig struct {
	Enabled                bool  `mapstructure:"enabled"`
	WindowSeconds          int   `mapstructure:"window_seconds"`
	FailurePercentage      int   `mapstructure:"failure_percentage"`
	FailureStatusCodes     []int `mapstructure:"failure_status_codes"`
	ResetTimeoutMS         int   `mapstructure:"reset_timeout_ms"`
	SuccessThreshold       int   `mapstructure:"success_threshold"`
	UseConsecutiveFailures bool  `mapstructure:"use_consecutive_failures"`
	FailureThreshold       int   `mapstructure:"failure_threshold"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerWindow int  `mapstructure:"requests_per_window"`
	WindowSeconds     int  `mapstructure:"window_seconds"`
	PerClient         bool `mapstructure:"per_client"`
}

type TimeoutConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	TimeoutSeconds int  `mapstructure:"timeout_seconds"`
}

type ConcurrencyConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	MaxConcurrentRequests int  `mapstructure:"max_concurrent_requests"`
}

// EndpointSecurityConfig controls which operational endpoints are public
// and how much they reveal.
type EndpointSecurityConfig struct {
	PublicHealth         bool `mapstructure:"public_health"`
	ExposeHealthDetails  bool `mapstructure:"expose_health_details"`
	PublicDetailedHealth bool `mapstructure:"public_detailed_health"`
	PublicMetrics        bool `mapstructure:"public_metrics"`
	ExposeSensitiveInfo  bool `mapstructure:"expose_sensitive_info"`
}

type FeaturesConfig struct {
	Enabled []string `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type OpenAPIConfig struct {
	SpecFile string `mapstructure:"spec_file"`
}

// Load reads .env, then the YAML layers from CONFIG_DIR for RUN_ENV, then
// environment variables.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	return LoadFrom(getEnvOrDefault("CONFIG_DIR", "./config"), getEnvOrDefault("RUN_ENV", "development"))
}

// LoadFrom builds the configuration from dir for the given run environment.
// Layers, lowest priority first: default.yaml, local.yaml, {env}.yaml,
// local-{env}.yaml, NAVIUS_* environment variables. Missing files are skipped.
func LoadFrom(dir, runEnv string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, runEnv)

	layers := []string{
		"default.yaml",
		"local.yaml",
		runEnv + ".yaml",
		"local-" + runEnv + ".yaml",
	}
	for _, name := range layers {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("checking config file %s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("NAVIUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Environment = ParseEnvironment(string(cfg.Environment))
	applyEndpointSecurityDefaults(v, &cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, runEnv string) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.timeout_seconds", 10)
	v.SetDefault("server.max_retries", 3)
	v.SetDefault("server.protocol", "http")

	v.SetDefault("app.name", "navius")
	v.SetDefault("app.description", "Navius backend service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("api.base_url", "https://petstore3.swagger.io/api/v3")
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.version", "v1")
	v.SetDefault("api.timeout_seconds", 30)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 1)
	v.SetDefault("database.connect_timeout_seconds", 30)
	v.SetDefault("database.idle_timeout_seconds", 300)
	v.SetDefault("database.max_lifetime_seconds", 3600)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.provider", "memory")
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("cache.max_capacity", 10000)
	v.SetDefault("cache.eviction_policy", "LRU")
	v.SetDefault("cache.redis_url", "redis://localhost:6379")
	v.SetDefault("cache.reconnect_interval_seconds", 30)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.debug", false)
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.secret", "")

	v.SetDefault("reliability.retry.enabled", true)
	v.SetDefault("reliability.retry.max_attempts", 3)
	v.SetDefault("reliability.retry.base_delay_ms", 100)
	v.SetDefault("reliability.retry.max_delay_ms", 1000)
	v.SetDefault("reliability.retry.use_exponential_backoff", true)
	v.SetDefault("reliability.retry.retry_status_codes", []int{408, 429, 500, 502, 503, 504})

	v.SetDefault("reliability.circuit_breaker.enabled", true)
	v.SetDefault("reliability.circuit_breaker.window_seconds", 60)
	v.SetDefault("reliability.circuit_breaker.failure_percentage", 50)
	v.SetDefault("reliability.circuit_breaker.failure_status_codes", []int{500, 502, 503, 504})
	v.SetDefault("reliability.circuit_breaker.reset_timeout_ms", 30000)
	v.SetDefault("reliability.circuit_breaker.success_threshold", 2)
	v.SetDefault("reliability.circuit_breaker.use_consecutive_failures", false)
	v.SetDefault("reliability.circuit_breaker.failure_threshold", 5)

	v.SetDefault("reliability.rate_limit.enabled", true)
	v.SetDefault("reliability.rate_limit.requests_per_window", 100)
	v.SetDefault("reliability.rate_limit.window_seconds", 60)
	v.SetDefault("reliability.rate_limit.per_client", false)

	v.SetDefault("reliability.timeout.enabled", true)
	v.SetDefault("reliability.timeout.timeout_seconds", 30)

	v.SetDefault("reliability.concurrency.enabled", false)
	v.SetDefault("reliability.concurrency.max_concurrent_requests", 100)

	v.SetDefault("environment", runEnv)
	v.SetDefault("features.enabled", []string{})

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.sample_ratio", 1.0)

	v.SetDefault("openapi.spec_file", "navius-swagger.yaml")
}

// applyEndpointSecurityDefaults fills every endpoint_security flag that no
// layer set with the default for the active environment.
func applyEndpointSecurityDefaults(v *viper.Viper, cfg *Config) {
	defaults := EndpointSecurityFor(cfg.Environment)
	fields := []struct {
		key    string
		target *bool
		value  bool
	}{
		{"endpoint_security.public_health", &cfg.EndpointSecurity.PublicHealth, defaults.PublicHealth},
		{"endpoint_security.expose_health_details", &cfg.EndpointSecurity.ExposeHealthDetails, defaults.ExposeHealthDetails},
		{"endpoint_security.public_detailed_health", &cfg.EndpointSecurity.PublicDetailedHealth, defaults.PublicDetailedHealth},
		{"endpoint_security.public_metrics", &cfg.EndpointSecurity.PublicMetrics, defaults.PublicMetrics},
		{"endpoint_security.expose_sensitive_info", &cfg.EndpointSecurity.ExposeSensitiveInfo, defaults.ExposeSensitiveInfo},
	}
	for _, f := range fields {
		if !v.IsSet(f.key) {
			*f.target = f.value
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535: %d", c.Server.Port)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLogLevels, ", "))
	}

	validProviders := []string{"memory", "redis", "two-tier"}
	if c.Cache.Enabled && !contains(validProviders, strings.ToLower(c.Cache.Provider)) {
		return fmt.Errorf("invalid cache provider: %s (must be one of: %s)", c.Cache.Provider, strings.Join(validProviders, ", "))
	}

	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database.url is required when the database is enabled")
	}

	if c.Auth.Enabled {
		if c.Auth.Secret == "" {
			return fmt.Errorf("auth.secret is required when auth is enabled")
		}
		for _, category := range []string{RoleCategoryAdmin, RoleCategoryReadOnly, RoleCategoryFullAccess} {
			if len(c.Auth.RoleMappings[category]) == 0 {
				return fmt.Errorf("no %s roles configured in auth.role_mappings", category)
			}
		}
	}

	cb := c.Reliability.CircuitBreaker
	if cb.FailurePercentage < 0 || cb.FailurePercentage > 100 {
		return fmt.Errorf("circuit breaker failure_percentage must be between 0 and 100: %d", cb.FailurePercentage)
	}

	if c.Reliability.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1: %d", c.Reliability.Retry.MaxAttempts)
	}

	return nil
}

// ServerAddr returns host:port for the HTTP listener.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// writeTimeoutMargin leaves room to render the TIMEOUT response after the
// request deadline passes.
const writeTimeoutMargin = 5 * time.Second

// RequestDeadline is the longest a handler may run. With the timeout layer
// off it is bounded by the upstream client timeout across every retry.
func (c *Config) RequestDeadline() time.Duration {
	if t := c.Reliability.Timeout; t.Enabled && t.TimeoutSeconds > 0 {
		return time.Duration(t.TimeoutSeconds) * time.Second
	}
	attempts := 1
	if r := c.Reliability.Retry; r.Enabled && r.MaxAttempts > 1 {
		attempts = r.MaxAttempts
	}
	return time.Duration(c.API.TimeoutSeconds*attempts) * time.Second
}

// ServerTimeouts returns the listener read, write and idle timeouts. The
// write timeout always outlasts RequestDeadline so a slow request ends in a
// rendered 504 instead of a dropped connection.
func (c *Config) ServerTimeouts() (read, write, idle time.Duration) {
	read = time.Duration(c.Server.TimeoutSeconds) * time.Second
	write = max(read, c.RequestDeadline()+writeTimeoutMargin)
	return read, write, 4 * read
}

// CacheTTL returns the default cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// OpenAPISpecPath returns the on-disk location of the OpenAPI document.
func (c *Config) OpenAPISpecPath() string {
	return filepath.Join("config", "swagger", c.OpenAPI.SpecFile)
}

// OpenAPISpecURL returns the URL the OpenAPI document is served from.
func (c *Config) OpenAPISpecURL() string {
	return "/actuator/docs/" + c.OpenAPI.SpecFile
}

// EnabledFeatures returns the enabled feature flags as a set.
func (c *Config) EnabledFeatures() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Features.Enabled))
	for _, f := range c.Features.Enabled {
		set[f] = struct{}{}
	}
	return set
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
