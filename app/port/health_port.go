package port

//go:generate mockgen -source=health_port.go -destination=../mocks/mock_health_port.go

import (
	"context"

	"navius/app/domain"
)

// HealthIndicator checks one dependency of the service
type HealthIndicator interface {
	Name() string
	Check(ctx context.Context) domain.DependencyStatus
	// Order sorts indicators in reports, lowest first.
	Order() int
	// Critical indicators drive the aggregate status DOWN when they fail.
	Critical() bool
	Metadata() map[string]string
}
