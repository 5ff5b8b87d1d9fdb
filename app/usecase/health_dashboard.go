package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"navius/app/domain"
	apperrors "navius/app/utils/errors"
)

const (
	DefaultHistorySize      = 100
	DefaultMinCheckInterval = 5 * time.Second
)

// DashboardView is the detailed health view with recent history
type DashboardView struct {
	Status     string                            `json:"status"`
	Timestamp  time.Time                         `json:"timestamp"`
	Components map[string]domain.ComponentHealth `json:"components"`
	History    []domain.HealthHistoryEntry       `json:"history"`
	Cached     bool                              `json:"cached"`
	CacheAgeMS int64                             `json:"cacheAge,omitempty"`
}

// RegisterIndicatorRequest adds a fixed-status indicator at runtime
type RegisterIndicatorRequest struct {
	Name     string            `json:"name" validate:"required,min=1,max=64"`
	Status   string            `json:"status" validate:"required"`
	Details  map[string]string `json:"details,omitempty"`
	Critical bool              `json:"critical"`
}

// HealthDashboard records health checks and rate limits how often they run.
type HealthDashboard struct {
	service     *HealthService
	maxHistory  int
	minInterval time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu        sync.Mutex
	history   []domain.HealthHistoryEntry
	last      *domain.HealthReport
	lastCheck time.Time
}

func NewHealthDashboard(service *HealthService, maxHistory int, minInterval time.Duration, logger *slog.Logger) *HealthDashboard {
	if maxHistory <= 0 {
		maxHistory = DefaultHistorySize
	}
	return &HealthDashboard{
		service:     service,
		maxHistory:  maxHistory,
		minInterval: minInterval,
		logger:      logger.With("component", "health_dashboard"),
		now:         time.Now,
	}
}

// Check returns the latest report. A report younger than the minimum check
// interval is reused instead of running the indicators again.
func (d *HealthDashboard) Check(ctx context.Context) DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.last != nil && now.Sub(d.lastCheck) < d.minInterval {
		view := d.view(*d.last)
		view.Cached = true
		view.CacheAgeMS = now.Sub(d.lastCheck).Milliseconds()
		return view
	}

	report := d.service.Check(ctx)
	d.last = &report
	d.lastCheck = now

	entry := domain.HealthHistoryEntry{
		Timestamp:  report.Timestamp,
		Status:     report.Status,
		Components: report.Components,
	}
	if report.Status != domain.StatusUp {
		entry.Error = failingSummary(report)
	}
	d.history = append(d.history, entry)
	if over := len(d.history) - d.maxHistory; over > 0 {
		d.history = append([]domain.HealthHistoryEntry(nil), d.history[over:]...)
	}

	return d.view(report)
}

func (d *HealthDashboard) view(report domain.HealthReport) DashboardView {
	return DashboardView{
		Status:     report.Status,
		Timestamp:  report.Timestamp,
		Components: report.Components,
		History:    append([]domain.HealthHistoryEntry(nil), d.history...),
	}
}

// History returns the recorded checks, oldest first
func (d *HealthDashboard) History() []domain.HealthHistoryEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.HealthHistoryEntry(nil), d.history...)
}

// ClearHistory drops the history and the reused report
func (d *HealthDashboard) ClearHistory() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.history = nil
	d.last = nil
	d.lastCheck = time.Time{}
	d.logger.Info("Health history cleared")
}

// RegisterDynamic registers a fixed-status indicator and forces the next
// check to run.
func (d *HealthDashboard) RegisterDynamic(req RegisterIndicatorRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return apperrors.NewValidationError("indicator name is required")
	}

	status := strings.ToUpper(strings.TrimSpace(req.Status))
	switch status {
	case domain.StatusUp, domain.StatusDown, domain.StatusUnknown, domain.StatusDisabled:
	default:
		return apperrors.NewValidationError(fmt.Sprintf("invalid status %q: must be one of UP, DOWN, UNKNOWN, DISABLED", req.Status))
	}

	if d.reserved(name) {
		return apperrors.NewConflict(fmt.Sprintf("indicator %q is built in and cannot be replaced", name))
	}

	d.service.Register(NewStaticIndicator(name, status, req.Details, req.Critical))

	d.mu.Lock()
	d.last = nil
	d.mu.Unlock()

	d.logger.Info("Dynamic health indicator registered", "name", name, "status", status, "critical", req.Critical)
	return nil
}

// reserved reports whether name belongs to a built-in indicator, either by
// well-known name or because a non-dynamic indicator already uses it.
func (d *HealthDashboard) reserved(name string) bool {
	if builtinIndicators[name] {
		return true
	}
	for _, ind := range d.service.Indicators() {
		if ind.Name() == name && ind.Metadata()["type"] != "dynamic" {
			return true
		}
	}
	return false
}

func failingSummary(report domain.HealthReport) string {
	var failing []string
	for _, name := range report.Order {
		c := report.Components[name]
		if c.Critical && c.Status != domain.StatusUp && c.Status != domain.StatusDisabled {
			failing = append(failing, name+"="+c.Status)
		}
	}
	if len(failing) == 0 {
		return ""
	}
	return "failing components: " + strings.Join(failing, ", ")
}
