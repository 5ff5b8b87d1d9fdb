package handlers

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"

	"navius/app/buildinfo"
	"navius/app/config"
	"navius/app/reliability"
	"navius/app/usecase"
	apperrors "navius/app/utils/errors"
	"navius/app/utils/validator"
)

// ActuatorHandler serves the operational endpoints under /actuator
type ActuatorHandler struct {
	cfg       *config.Config
	dashboard *usecase.HealthDashboard
	cache     *usecase.CacheRegistry
	metrics   *reliability.Metrics
	breakers  []*reliability.CircuitBreaker
	docsDir   string
	logger    *slog.Logger
}

type ActuatorDeps struct {
	Dashboard *usecase.HealthDashboard
	Cache     *usecase.CacheRegistry
	Metrics   *reliability.Metrics
	Breakers  []*reliability.CircuitBreaker
	DocsDir   string
}

func NewActuatorHandler(cfg *config.Config, deps ActuatorDeps, logger *slog.Logger) *ActuatorHandler {
	return &ActuatorHandler{
		cfg:       cfg,
		dashboard: deps.Dashboard,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		breakers:  deps.Breakers,
		docsDir:   deps.DocsDir,
		logger:    logger.With("component", "actuator_handler"),
	}
}

type InfoResponse struct {
	App   AppInfo   `json:"app"`
	Build BuildInfo `json:"build"`
	Git   GitInfo   `json:"git"`
	Env   EnvInfo   `json:"env"`
}

type AppInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Encoding    string `json:"encoding"`
}

type BuildInfo struct {
	Artifact string `json:"artifact"`
	Name     string `json:"name"`
	Time     string `json:"time,omitempty"`
	Version  string `json:"version"`
	Group    string `json:"group"`
}

type GitInfo struct {
	Branch string     `json:"branch"`
	Commit CommitInfo `json:"commit"`
}

type CommitInfo struct {
	ID   string `json:"id"`
	Time string `json:"time,omitempty"`
}

type EnvInfo struct {
	Active   string   `json:"active"`
	Features []string `json:"features"`
}

// Info describes the running build
// @Summary Application info
// @Tags actuator
// @Produce json
// @Success 200 {object} InfoResponse
// @Router /actuator/info [get]
func (h *ActuatorHandler) Info(c echo.Context) error {
	build := buildinfo.Get()
	if t, ok := buildinfo.ParsedBuildTime(); ok {
		build.BuildTime = t.UTC().Format(time.RFC3339)
	}

	features := make([]string, 0, len(h.cfg.Features.Enabled))
	for f := range h.cfg.EnabledFeatures() {
		features = append(features, f)
	}
	sort.Strings(features)

	return c.JSON(http.StatusOK, InfoResponse{
		App: AppInfo{
			Name:        h.cfg.App.Name,
			Description: h.cfg.App.Description,
			Version:     h.cfg.App.Version,
			Encoding:    "UTF-8",
		},
		Build: BuildInfo{
			Artifact: h.cfg.App.Name,
			Name:     h.cfg.App.Name,
			Time:     build.BuildTime,
			Version:  build.Version,
			Group:    "navius",
		},
		Git: GitInfo{
			Branch: build.Branch,
			Commit: CommitInfo{ID: buildinfo.ShortCommit(), Time: build.CommitTime},
		},
		Env: EnvInfo{
			Active:   string(h.cfg.Environment),
			Features: features,
		},
	})
}

// Dashboard returns the detailed health view with history
func (h *ActuatorHandler) Dashboard(c echo.Context) error {
	view := h.dashboard.Check(c.Request().Context())
	return c.JSON(http.StatusOK, view)
}

// ClearHistory empties the dashboard history
func (h *ActuatorHandler) ClearHistory(c echo.Context) error {
	h.dashboard.ClearHistory()
	return c.JSON(http.StatusOK, map[string]string{"status": "history cleared"})
}

// RegisterIndicator adds a fixed-status dashboard indicator
func (h *ActuatorHandler) RegisterIndicator(c echo.Context) error {
	var req usecase.RegisterIndicatorRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.NewBadRequest("invalid request body").WithCause(err)
	}
	if err := validator.Default().Validate(req); err != nil {
		return err
	}
	if err := h.dashboard.RegisterDynamic(req); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"registered": req.Name})
}

type CacheStatsResponse struct {
	Enabled     bool                         `json:"enabled"`
	Provider    string                       `json:"provider"`
	TTLSeconds  int64                        `json:"ttl_seconds"`
	MaxCapacity int                          `json:"max_capacity"`
	Caches      []usecase.ResourceCacheStats `json:"caches"`
}

// CacheStats reports every resource cache
func (h *ActuatorHandler) CacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, CacheStatsResponse{
		Enabled:     h.cache.Enabled(),
		Provider:    h.cfg.Cache.Provider,
		TTLSeconds:  int64(h.cache.TTL().Seconds()),
		MaxCapacity: h.cache.MaxCapacity(),
		Caches:      h.cache.Stats(),
	})
}

// ClearCache empties one resource cache
func (h *ActuatorHandler) ClearCache(c echo.Context) error {
	resource := c.Param("resource")
	if err := h.cache.Clear(c.Request().Context(), resource); err != nil {
		return err
	}
	h.logger.Info("Resource cache cleared via actuator", "resource_type", resource)
	return c.JSON(http.StatusOK, map[string]string{"cleared": resource})
}

type ReliabilityResponse struct {
	Requests reliability.MetricsSnapshot   `json:"requests"`
	Breakers []reliability.BreakerSnapshot `json:"circuit_breakers"`
}

// Reliability reports request outcomes and breaker states
func (h *ActuatorHandler) Reliability(c echo.Context) error {
	resp := ReliabilityResponse{Breakers: make([]reliability.BreakerSnapshot, 0, len(h.breakers))}
	if h.metrics != nil {
		resp.Requests = h.metrics.Snapshot()
	}
	for _, b := range h.breakers {
		resp.Breakers = append(resp.Breakers, b.Snapshot())
	}
	return c.JSON(http.StatusOK, resp)
}

// Docs serves an OpenAPI document from the docs directory as YAML, or as
// JSON with ?format=json.
func (h *ActuatorHandler) Docs(c echo.Context) error {
	name := c.Param("file")
	if !validDocName(name) {
		return apperrors.NewBadRequest("invalid document name")
	}

	raw, err := os.ReadFile(filepath.Join(h.docsDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.NewNotFound("document " + name)
		}
		return apperrors.NewInternalError(err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return apperrors.NewInternalError(err).WithDetails("document is not valid YAML")
	}

	if c.QueryParam("format") == "json" {
		return c.JSON(http.StatusOK, doc)
	}
	return c.Blob(http.StatusOK, "application/yaml", raw)
}

func validDocName(name string) bool {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
