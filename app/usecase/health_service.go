package usecase

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"navius/app/domain"
	"navius/app/metrics"
	"navius/app/port"
)

// HealthService aggregates registered health indicators
type HealthService struct {
	logger *slog.Logger
	now    func() time.Time

	mu         sync.RWMutex
	indicators []port.HealthIndicator
}

func NewHealthService(logger *slog.Logger) *HealthService {
	return &HealthService{
		logger: logger.With("component", "health_service"),
		now:    time.Now,
	}
}

// Register adds ind, replacing an indicator with the same name
func (s *HealthService) Register(ind port.HealthIndicator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.indicators {
		if existing.Name() == ind.Name() {
			s.indicators = append(s.indicators[:i], s.indicators[i+1:]...)
			break
		}
	}
	s.indicators = append(s.indicators, ind)
	sort.SliceStable(s.indicators, func(i, j int) bool {
		a, b := s.indicators[i], s.indicators[j]
		if a.Order() != b.Order() {
			return a.Order() < b.Order()
		}
		return a.Name() < b.Name()
	})
}

// Unregister removes the named indicator and reports whether it existed
func (s *HealthService) Unregister(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ind := range s.indicators {
		if ind.Name() == name {
			s.indicators = append(s.indicators[:i], s.indicators[i+1:]...)
			return true
		}
	}
	return false
}

// Indicators returns the registered indicators in report order
func (s *HealthService) Indicators() []port.HealthIndicator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]port.HealthIndicator(nil), s.indicators...)
}

type indicatorResult struct {
	index    int
	status   domain.DependencyStatus
	duration time.Duration
}

// Check runs every indicator concurrently. Indicators still running when ctx
// ends are reported UNKNOWN.
func (s *HealthService) Check(ctx context.Context) domain.HealthReport {
	indicators := s.Indicators()
	results := make(chan indicatorResult, len(indicators))

	for i, ind := range indicators {
		go func(i int, ind port.HealthIndicator) {
			start := time.Now()
			status := ind.Check(ctx)
			results <- indicatorResult{index: i, status: status, duration: time.Since(start)}
		}(i, ind)
	}

	statuses := make([]*indicatorResult, len(indicators))
	for received := 0; received < len(indicators); received++ {
		select {
		case r := <-results:
			statuses[r.index] = &r
		case <-ctx.Done():
			received = len(indicators)
		}
	}

	report := domain.HealthReport{
		Status:     domain.StatusUp,
		Timestamp:  s.now().UTC(),
		Components: make(map[string]domain.ComponentHealth, len(indicators)),
		Order:      make([]string, 0, len(indicators)),
	}

	for i, ind := range indicators {
		component := domain.ComponentHealth{
			Status:   domain.StatusUnknown,
			Details:  map[string]string{"error": "health check did not complete"},
			Metadata: ind.Metadata(),
			Critical: ind.Critical(),
		}
		if r := statuses[i]; r != nil {
			component.Status = r.status.Status
			component.Details = r.status.Details
			component.ResponseTimeMS = r.duration.Milliseconds()
		}

		if ind.Critical() && component.Status != domain.StatusUp && component.Status != domain.StatusDisabled {
			report.Status = domain.StatusDown
		}
		metrics.SetComponentUp(ind.Name(), component.Status == domain.StatusUp)

		report.Components[ind.Name()] = component
		report.Order = append(report.Order, ind.Name())
	}

	if report.Status == domain.StatusDown {
		s.logger.Warn("Health check reported DOWN")
	}
	return report
}

// Dependencies flattens a report into ordered dependency statuses
func Dependencies(report domain.HealthReport) []domain.DependencyStatus {
	out := make([]domain.DependencyStatus, 0, len(report.Order))
	for _, name := range report.Order {
		c := report.Components[name]
		out = append(out, domain.DependencyStatus{Name: name, Status: c.Status, Details: c.Details})
	}
	return out
}
