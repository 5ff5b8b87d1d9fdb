package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"navius/app/config"
	"navius/app/domain"
	"navius/app/driver/cache"
	"navius/app/driver/memory"
	"navius/app/driver/postgres"
	"navius/app/gateway"
	"navius/app/port"
	"navius/app/reliability"
	"navius/app/rest"
	"navius/app/rest/handlers"
	custommw "navius/app/rest/middleware"
	"navius/app/usecase"
	"navius/app/utils/dsn"
	"navius/app/utils/otel"
)

// redisKeyPrefix namespaces every redis cache key
const redisKeyPrefix = "navius"

// Container holds all dependencies for the application
type Container struct {
	Config    *config.Config
	Logger    *slog.Logger
	StartTime time.Time

	// Drivers
	DB             *postgres.DB
	Redis          *redis.Client
	MemoryProvider *cache.MemoryProvider
	RedisProvider  *cache.RedisProvider
	Providers      *cache.ProviderRegistry

	// Reliability
	Metrics         *reliability.Metrics
	ServerBreaker   *reliability.CircuitBreaker
	PetstoreBreaker *reliability.CircuitBreaker
	Concurrency     *reliability.ConcurrencyLimiter
	RateLimiter     *custommw.RateLimiter

	// Gateways
	PetstoreGateway *gateway.PetstoreGateway

	// Usecases
	CacheRegistry   *usecase.CacheRegistry
	PetUsecase      port.PetUsecase
	UserUsecase     port.UserUsecase
	ResourceUsecase port.ResourceUsecase
	HealthService   *usecase.HealthService
	Dashboard       *usecase.HealthDashboard

	shutdownTracer otel.ShutdownFunc
}

// NewContainer creates and initializes a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:    cfg,
		Logger:    logger,
		StartTime: time.Now(),
		Metrics:   reliability.NewMetrics(),
	}

	var err error
	c.shutdownTracer, err = otel.InitProvider(ctx, otel.ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	petRepo, err := c.initDatabase(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	if err := c.initCaches(ctx); err != nil {
		c.Close()
		return nil, err
	}

	c.initReliability()

	c.PetstoreGateway = gateway.NewPetstoreGateway(
		cfg.API,
		nil,
		reliability.PolicyFrom(cfg.Reliability.Retry),
		c.PetstoreBreaker,
		c.Metrics,
		logger,
	)

	c.PetUsecase = usecase.NewPetUsecase(petRepo, c.CacheRegistry, c.Logger)
	c.UserUsecase = usecase.NewUserUsecase(memory.NewRepository[*domain.User]("user"), c.Logger)
	c.ResourceUsecase = usecase.NewResourceUsecase(c.PetstoreGateway, c.CacheRegistry, c.Logger)

	c.initHealth()

	logger.Info("Container initialized",
		"environment", cfg.Environment,
		"database", c.DB != nil,
		"cache_provider", cfg.Cache.Provider,
		"cache_enabled", cfg.Cache.Enabled)

	return c, nil
}

func (c *Container) initDatabase(ctx context.Context) (port.PetRepository, error) {
	if !c.Config.Database.Enabled {
		c.Logger.Info("Database disabled, using in-memory pet repository")
		return memory.NewPetRepository(), nil
	}

	db, err := postgres.NewConnection(ctx, c.Config.Database, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db
	return postgres.NewPetRepository(db.Pool(), c.Logger), nil
}

func (c *Container) initCaches(ctx context.Context) error {
	cfg := c.Config.Cache

	c.MemoryProvider = cache.NewMemoryProvider(c.Logger)
	c.Providers = cache.NewProviderRegistry()
	c.Providers.Register(c.MemoryProvider)

	usesRedis := cfg.Enabled && (cfg.Provider == cache.ProviderRedis || cfg.Provider == cache.ProviderTwoTier)
	if usesRedis {
		client, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.Redis = client
		c.RedisProvider = cache.NewRedisProvider(client, redisKeyPrefix, c.Logger)
		c.Providers.Register(c.RedisProvider)
		c.Providers.Register(cache.NewTwoTierProvider(c.MemoryProvider, c.RedisProvider, c.Config.CacheTTL(), c.Logger))
	}

	policy, err := domain.ParseEvictionPolicy(cfg.EvictionPolicy)
	if err != nil {
		return fmt.Errorf("invalid cache configuration: %w", err)
	}

	c.CacheRegistry = usecase.NewCacheRegistry(cfg.Enabled, c.Config.CacheTTL(), cfg.MaxCapacity, c.Logger)
	if !cfg.Enabled {
		return nil
	}

	for _, resourceType := range []string{usecase.ResourcePet, usecase.ResourcePetstorePet} {
		cacheCfg := domain.CacheConfig{
			Name:           resourceType,
			Provider:       cfg.Provider,
			Capacity:       cfg.MaxCapacity,
			DefaultTTL:     c.Config.CacheTTL(),
			EvictionPolicy: policy,
		}

		primary, err := c.Providers.Create(ctx, cacheCfg)
		if err != nil {
			return fmt.Errorf("failed to create %s cache: %w", resourceType, err)
		}

		if usesRedis {
			localCfg := cacheCfg
			localCfg.Provider = cache.ProviderMemory
			secondary, err := c.MemoryProvider.Create(ctx, localCfg)
			if err != nil {
				return fmt.Errorf("failed to create %s fallback cache: %w", resourceType, err)
			}
			primary = cache.NewFallbackCache(primary, secondary, c.Logger)
		}

		c.CacheRegistry.Register(resourceType, primary)
	}
	return nil
}

func (c *Container) initReliability() {
	rc := c.Config.Reliability

	observe := func(name string, _, to reliability.State) {
		c.Metrics.ObserveBreaker(name, to)
	}

	if rc.CircuitBreaker.Enabled {
		c.ServerBreaker = reliability.NewCircuitBreaker(
			reliability.BreakerConfigFrom("server", rc.CircuitBreaker),
			reliability.WithBreakerLogger(c.Logger),
			reliability.WithStateChangeHook(observe),
		)
	}

	// The upstream breaker exists even when the server breaker is off
	petstoreCfg := rc.CircuitBreaker
	petstoreCfg.Enabled = true
	c.PetstoreBreaker = reliability.NewCircuitBreaker(
		reliability.BreakerConfigFrom("petstore", petstoreCfg),
		reliability.WithBreakerLogger(c.Logger),
		reliability.WithStateChangeHook(observe),
	)

	if rc.Concurrency.Enabled {
		c.Concurrency = reliability.NewConcurrencyLimiter(rc.Concurrency.MaxConcurrentRequests)
	}
	if rc.RateLimit.Enabled {
		c.RateLimiter = custommw.NewRateLimiter(rc.RateLimit)
	}
}

func (c *Container) initHealth() {
	cfg := c.Config
	c.HealthService = usecase.NewHealthService(c.Logger)

	var cachePing func(context.Context) error
	if c.RedisProvider != nil {
		cachePing = c.RedisProvider.Ping
	}

	var db usecase.Pinger
	if c.DB != nil {
		db = c.DB
	}

	indicators := []port.HealthIndicator{
		usecase.NewEnvIndicator(cfg.Environment),
		usecase.NewCacheIndicator(c.CacheRegistry, cfg.Cache.Provider, cachePing),
		usecase.NewDatabaseIndicator(db, cfg.Database, cfg.EndpointSecurity.ExposeSensitiveInfo, dsn.Mask),
		usecase.NewDiskSpaceIndicator(".", 0),
		usecase.NewServicesIndicator([]string{"pets", "users", "petstore"}),
		usecase.NewPetstoreAPIIndicator(c.PetstoreGateway.BaseURL(), c.PetstoreGateway.CheckInventory),
		usecase.NewAuthIndicator(cfg.Auth),
	}
	for _, ind := range indicators {
		c.HealthService.Register(ind)
	}

	c.Dashboard = usecase.NewHealthDashboard(c.HealthService, usecase.DefaultHistorySize, usecase.DefaultMinCheckInterval, c.Logger)
}

// Breakers lists every circuit breaker the container owns
func (c *Container) Breakers() []*reliability.CircuitBreaker {
	var out []*reliability.CircuitBreaker
	for _, b := range []*reliability.CircuitBreaker{c.ServerBreaker, c.PetstoreBreaker} {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// CreateRouter creates and returns a fully configured Echo router
func (c *Container) CreateRouter() *echo.Echo {
	cfg := c.Config
	return rest.NewRouter(rest.RouterConfig{
		Config: cfg,
		Logger: c.Logger,

		Health: handlers.NewHealthHandler(c.HealthService, cfg, c.StartTime, c.Logger),
		Actuator: handlers.NewActuatorHandler(cfg, handlers.ActuatorDeps{
			Dashboard: c.Dashboard,
			Cache:     c.CacheRegistry,
			Metrics:   c.Metrics,
			Breakers:  c.Breakers(),
			DocsDir:   filepath.Dir(cfg.OpenAPISpecPath()),
		}, c.Logger),
		Pets:     handlers.NewPetHandler(c.PetUsecase, c.Logger),
		Users:    handlers.NewUserHandler(c.UserUsecase, c.Logger),
		Petstore: handlers.NewPetstoreHandler(c.ResourceUsecase),

		Auth: custommw.NewAuthMiddleware(cfg.Auth, c.Logger),

		RateLimiter: c.RateLimiter,
		Concurrency: c.Concurrency,
		Breaker:     c.ServerBreaker,
		Timeout:     c.requestTimeout(),
		Metrics:     c.Metrics,
	})
}

func (c *Container) requestTimeout() time.Duration {
	t := c.Config.Reliability.Timeout
	if !t.Enabled || t.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// Close releases every resource the container opened
func (c *Container) Close() error {
	var errs []error

	if c.RateLimiter != nil {
		c.RateLimiter.Close()
	}
	if c.MemoryProvider != nil {
		errs = append(errs, c.MemoryProvider.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		c.DB.Close()
	}
	if c.shutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, c.shutdownTracer(ctx))
		cancel()
	}

	c.Logger.Info("Container closed")
	return errors.Join(errs...)
}
