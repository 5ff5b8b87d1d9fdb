package usecase

import (
	"context"
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"navius/app/config"
	"navius/app/domain"
	"navius/app/port"
)

// Indicator orders. Dynamic indicators sort after the built-in ones.
const (
	OrderEnv         = 5
	OrderCache       = 10
	OrderDatabase    = 15
	OrderDiskSpace   = 20
	OrderServices    = 30
	OrderPetstoreAPI = 40
	OrderAuth        = 50
	OrderDynamic     = 100
)

const defaultDiskThreshold = 100 * 1024 * 1024

// Pinger is anything that can report liveness
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PoolReporter is implemented by pingers that can describe their connection pool
type PoolReporter interface {
	PoolDetails() map[string]string
}

type indicator struct {
	name     string
	order    int
	critical bool
	metadata map[string]string
	check    func(ctx context.Context) domain.DependencyStatus
}

func (i *indicator) Name() string                { return i.name }
func (i *indicator) Order() int                  { return i.order }
func (i *indicator) Critical() bool              { return i.critical }
func (i *indicator) Metadata() map[string]string { return i.metadata }

func (i *indicator) Check(ctx context.Context) domain.DependencyStatus {
	status := i.check(ctx)
	status.Name = i.name
	return status
}

// NewEnvIndicator reports the effective environment. PRODUCTION, STAGING and
// CI environment variables take precedence over configuration.
func NewEnvIndicator(env config.Environment) port.HealthIndicator {
	return &indicator{
		name:  "env",
		order: OrderEnv,
		check: func(context.Context) domain.DependencyStatus {
			detected, source := detectEnvironment(env)
			return domain.Up("env", map[string]string{
				"environment": string(detected),
				"source":      source,
			})
		},
	}
}

func detectEnvironment(configured config.Environment) (config.Environment, string) {
	switch {
	case isTruthy(os.Getenv("PRODUCTION")):
		return config.EnvProduction, "PRODUCTION"
	case isTruthy(os.Getenv("STAGING")):
		return config.EnvStaging, "STAGING"
	case isTruthy(os.Getenv("CI")):
		return config.EnvTesting, "CI"
	default:
		return configured, "config"
	}
}

func isTruthy(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// NewCacheIndicator reports the cache registry. ping is nil for providers
// without a remote server.
func NewCacheIndicator(registry *CacheRegistry, provider string, ping func(context.Context) error) port.HealthIndicator {
	return &indicator{
		name:     "cache",
		order:    OrderCache,
		metadata: map[string]string{"provider": provider},
		check: func(ctx context.Context) domain.DependencyStatus {
			if !registry.Enabled() {
				return domain.Disabled("cache", "cache is disabled")
			}
			details := map[string]string{
				"provider":       provider,
				"resource_types": strconv.Itoa(len(registry.ResourceTypes())),
			}
			if ping != nil {
				if err := ping(ctx); err != nil {
					details["error"] = truncate(err.Error(), 100)
					return domain.Down("cache", details)
				}
			}
			for _, s := range registry.Stats() {
				details[s.ResourceType+"_hit_ratio"] = fmt.Sprintf("%.1f", s.HitRatio)
			}
			return domain.Up("cache", details)
		},
	}
}

// NewDatabaseIndicator pings the database. db is nil when it is disabled.
func NewDatabaseIndicator(db Pinger, cfg config.DatabaseConfig, exposeSensitive bool, mask func(string) string) port.HealthIndicator {
	return &indicator{
		name:     "database",
		order:    OrderDatabase,
		critical: true,
		check: func(ctx context.Context) domain.DependencyStatus {
			if !cfg.Enabled || db == nil {
				return domain.Disabled("database", "database is disabled")
			}
			url := cfg.URL
			if !exposeSensitive {
				url = mask(url)
			}
			details := map[string]string{
				"connection_url":  url,
				"max_connections": strconv.Itoa(int(cfg.MaxConnections)),
				"min_connections": strconv.Itoa(int(cfg.MinConnections)),
			}
			if err := db.HealthCheck(ctx); err != nil {
				details["error"] = truncate(err.Error(), 100)
				return domain.Down("database", details)
			}
			if r, ok := db.(PoolReporter); ok {
				maps.Copy(details, r.PoolDetails())
			}
			return domain.Up("database", details)
		},
	}
}

// NewDiskSpaceIndicator reports free space at path. threshold 0 means 100MB.
func NewDiskSpaceIndicator(path string, threshold uint64) port.HealthIndicator {
	if threshold == 0 {
		threshold = defaultDiskThreshold
	}
	return &indicator{
		name:     "diskSpace",
		order:    OrderDiskSpace,
		critical: true,
		check: func(context.Context) domain.DependencyStatus {
			total, free, err := diskUsage(path)
			if err != nil {
				return domain.DependencyStatus{Status: domain.StatusUnknown, Details: map[string]string{"error": err.Error()}}
			}
			details := map[string]string{
				"total":     strconv.FormatUint(total, 10),
				"free":      strconv.FormatUint(free, 10),
				"threshold": strconv.FormatUint(threshold, 10),
				"path":      path,
			}
			if free < threshold {
				return domain.Down("diskSpace", details)
			}
			return domain.Up("diskSpace", details)
		},
	}
}

// NewServicesIndicator reports the registered application services
func NewServicesIndicator(services []string) port.HealthIndicator {
	names := append([]string(nil), services...)
	return &indicator{
		name:     "services",
		order:    OrderServices,
		critical: true,
		check: func(context.Context) domain.DependencyStatus {
			return domain.Up("services", map[string]string{
				"count":    strconv.Itoa(len(names)),
				"services": strings.Join(names, ","),
			})
		},
	}
}

// NewPetstoreAPIIndicator checks the upstream API. inventory returns the HTTP
// status of a lightweight upstream request.
func NewPetstoreAPIIndicator(baseURL string, inventory func(context.Context) (int, error)) port.HealthIndicator {
	return &indicator{
		name:     "petstore_api",
		order:    OrderPetstoreAPI,
		metadata: map[string]string{"base_url": baseURL},
		check: func(ctx context.Context) domain.DependencyStatus {
			code, err := inventory(ctx)
			if err != nil {
				return domain.Down("petstore_api", map[string]string{"error": truncate(err.Error(), 100)})
			}
			details := map[string]string{"status_code": strconv.Itoa(code)}
			if code < 200 || code >= 300 {
				details["message"] = fmt.Sprintf("degraded (status %d)", code)
				return domain.Down("petstore_api", details)
			}
			return domain.Up("petstore_api", details)
		},
	}
}

// NewAuthIndicator reports whether bearer authentication is configured
func NewAuthIndicator(cfg config.AuthConfig) port.HealthIndicator {
	return &indicator{
		name:  "authentication",
		order: OrderAuth,
		check: func(context.Context) domain.DependencyStatus {
			if !cfg.Enabled {
				return domain.Disabled("authentication", "authentication is disabled")
			}
			return domain.Up("authentication", map[string]string{
				"issuer":   configured(cfg.Issuer),
				"audience": configured(cfg.Audience),
				"secret":   configured(cfg.Secret),
			})
		},
	}
}

// NewStaticIndicator always reports the given status. It backs indicators
// registered at runtime through the dashboard.
// builtinIndicators are owned by the service and cannot be replaced through
// dynamic registration.
var builtinIndicators = map[string]bool{
	"env":            true,
	"cache":          true,
	"database":       true,
	"diskSpace":      true,
	"services":       true,
	"petstore_api":   true,
	"authentication": true,
}

func NewStaticIndicator(name, status string, details map[string]string, critical bool) port.HealthIndicator {
	return &indicator{
		name:     name,
		order:    OrderDynamic,
		critical: critical,
		metadata: map[string]string{"type": "dynamic"},
		check: func(context.Context) domain.DependencyStatus {
			return domain.DependencyStatus{Status: status, Details: details}
		},
	}
}

func configured(v string) string {
	if v == "" {
		return "not set"
	}
	return "configured"
}

// truncate keeps the first n runes of s so multi-byte text is never split.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
