package domain

import "time"

// Health status values reported by indicators and the aggregate check.
const (
	StatusUp       = "UP"
	StatusDown     = "DOWN"
	StatusUnknown  = "UNKNOWN"
	StatusDisabled = "DISABLED"
)

// DependencyStatus is the result of a single health indicator
type DependencyStatus struct {
	Name    string            `json:"name"`
	Status  string            `json:"status"`
	Details map[string]string `json:"details,omitempty"`
}

// Up builds an UP status
func Up(name string, details map[string]string) DependencyStatus {
	return DependencyStatus{Name: name, Status: StatusUp, Details: details}
}

// Down builds a DOWN status
func Down(name string, details map[string]string) DependencyStatus {
	return DependencyStatus{Name: name, Status: StatusDown, Details: details}
}

// Disabled builds a DISABLED status
func Disabled(name, reason string) DependencyStatus {
	return DependencyStatus{Name: name, Status: StatusDisabled, Details: map[string]string{"reason": reason}}
}

// ComponentHealth is one indicator's entry in an aggregate health report
type ComponentHealth struct {
	Status         string            `json:"status"`
	Details        map[string]string `json:"details,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	ResponseTimeMS int64             `json:"responseTime"`
	Critical       bool              `json:"critical"`
}

// HealthReport is the aggregate of all registered indicators
type HealthReport struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
	// Order lists component names in indicator order.
	Order []string `json:"-"`
}

// HealthHistoryEntry is one dashboard history record
type HealthHistoryEntry struct {
	Timestamp  time.Time                  `json:"timestamp"`
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Error      string                     `json:"error,omitempty"`
}
