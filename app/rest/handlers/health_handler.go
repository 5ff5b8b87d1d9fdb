package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"navius/app/config"
	"navius/app/domain"
	"navius/app/usecase"
)

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	health        *usecase.HealthService
	version       string
	environment   config.Environment
	exposeDetails bool
	startTime     time.Time
	logger        *slog.Logger
}

// HealthResponse is the liveness reply
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// DetailedHealthResponse is the aggregate dependency report
type DetailedHealthResponse struct {
	Status        string                    `json:"status"`
	Version       string                    `json:"version"`
	UptimeSeconds int64                     `json:"uptime_seconds"`
	Environment   string                    `json:"environment"`
	Dependencies  []domain.DependencyStatus `json:"dependencies"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(health *usecase.HealthService, cfg *config.Config, startTime time.Time, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		health:        health,
		version:       cfg.App.Version,
		environment:   cfg.Environment,
		exposeDetails: cfg.EndpointSecurity.ExposeHealthDetails,
		startTime:     startTime,
		logger:        logger,
	}
}

// HealthCheck reports that the process is serving requests
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  domain.StatusUp,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Truncate(time.Second).String(),
	})
}

// DetailedHealth runs every health indicator
// @Summary Dependency health
// @Tags actuator
// @Produce json
// @Success 200 {object} DetailedHealthResponse
// @Failure 503 {object} DetailedHealthResponse
// @Router /actuator/health [get]
func (h *HealthHandler) DetailedHealth(c echo.Context) error {
	report := h.health.Check(c.Request().Context())

	deps := usecase.Dependencies(report)
	if !h.exposeDetails {
		for i := range deps {
			deps[i].Details = nil
		}
	}

	status := http.StatusOK
	if report.Status == domain.StatusDown {
		status = http.StatusServiceUnavailable
		h.logger.Warn("Health check failed", "status", report.Status)
	}

	return c.JSON(status, DetailedHealthResponse{
		Status:        report.Status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Environment:   string(h.environment),
		Dependencies:  deps,
	})
}
