package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"navius/app/config"
	"navius/app/domain"
	"navius/app/reliability"
	"navius/app/rest/handlers"
	custommw "navius/app/rest/middleware"
)

// RouterConfig holds router configuration
type RouterConfig struct {
	Config *config.Config
	Logger *slog.Logger

	Health   *handlers.HealthHandler
	Actuator *handlers.ActuatorHandler
	Pets     *handlers.PetHandler
	Users    *handlers.UserHandler
	Petstore *handlers.PetstoreHandler

	Auth *custommw.AuthMiddleware

	// Optional reliability layers. Nil disables the layer.
	RateLimiter *custommw.RateLimiter
	Concurrency *reliability.ConcurrencyLimiter
	Breaker     *reliability.CircuitBreaker
	Timeout     time.Duration

	Metrics *reliability.Metrics

	// MetricsHandler serves /metrics. Defaults to promhttp.Handler().
	MetricsHandler http.Handler
}

// NewRouter creates and configures the Echo router
func NewRouter(rc RouterConfig) *echo.Echo {
	cfg := rc.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Logging.Level == "debug"
	e.HTTPErrorHandler = custommw.ErrorHandler(rc.Logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(custommw.RequestLogger(rc.Logger))
	e.Use(custommw.Metrics(rc.Metrics))
	e.Use(custommw.SecurityHeaders(cfg.Environment == config.EnvProduction))
	e.Use(custommw.DefaultCORS())
	if cfg.Telemetry.Enabled {
		e.Use(otelecho.Middleware(cfg.App.Name))
	}

	if rc.RateLimiter != nil {
		e.Use(rc.RateLimiter.RateLimit())
	}
	if rc.Concurrency != nil {
		e.Use(custommw.ConcurrencyLimit(rc.Concurrency, rc.Metrics))
	}
	if rc.Timeout > 0 {
		e.Use(custommw.Timeout(rc.Timeout, rc.Metrics))
	}
	if rc.Breaker != nil {
		e.Use(custommw.CircuitBreaker(rc.Breaker, rc.Metrics))
	}

	sec := cfg.EndpointSecurity
	admin := rc.Auth.RequireAny(domain.RequireAdmin)
	readers := rc.Auth.RequireAny(domain.RequireReadOnly, domain.RequireFullAccess, domain.RequireAdmin)
	writers := rc.Auth.RequireAny(domain.RequireFullAccess, domain.RequireAdmin)

	if sec.PublicHealth {
		e.GET("/health", rc.Health.HealthCheck)
	} else {
		e.GET("/health", rc.Health.HealthCheck, rc.Auth.RequireAuth())
	}

	metricsHandler := rc.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	if sec.PublicMetrics {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	} else {
		e.GET("/metrics", echo.WrapHandler(metricsHandler), admin)
	}

	actuator := e.Group("/actuator")
	if !sec.PublicDetailedHealth {
		actuator.Use(admin)
	}
	actuator.GET("/health", rc.Health.DetailedHealth)
	actuator.GET("/info", rc.Actuator.Info)
	actuator.GET("/reliability", rc.Actuator.Reliability)
	actuator.GET("/dashboard", rc.Actuator.Dashboard)
	actuator.GET("/dashboard/history/clear", rc.Actuator.ClearHistory)
	actuator.POST("/dashboard/register", rc.Actuator.RegisterIndicator)
	actuator.GET("/cache", rc.Actuator.CacheStats)
	actuator.DELETE("/cache/:resource", rc.Actuator.ClearCache)
	actuator.GET("/docs/:file", rc.Actuator.Docs)

	v1 := e.Group("/v1")

	pets := v1.Group("/pets")
	pets.GET("", rc.Pets.List, readers)
	pets.GET("/:id", rc.Pets.Get, readers)
	pets.POST("", rc.Pets.Create, writers)
	pets.PUT("/:id", rc.Pets.Update, writers)
	pets.DELETE("/:id", rc.Pets.Delete, writers)

	users := v1.Group("/users", admin)
	users.GET("", rc.Users.List)
	users.GET("/:id", rc.Users.Get)
	users.POST("", rc.Users.Create)
	users.PUT("/:id", rc.Users.Update)
	users.DELETE("/:id", rc.Users.Delete)

	v1.GET("/petstore/pets/:id", rc.Petstore.GetPet, readers)

	return e
}
