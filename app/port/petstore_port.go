package port

//go:generate mockgen -source=petstore_port.go -destination=../mocks/mock_petstore_port.go

import (
	"context"

	"navius/app/domain"
)

// PetstoreGateway fetches data from the upstream Petstore API
type PetstoreGateway interface {
	GetPet(ctx context.Context, id int64) (*domain.PetstorePet, error)
}

// ResourceUsecase serves cached upstream resources
type ResourceUsecase interface {
	GetPetstorePet(ctx context.Context, id int64) (*domain.PetstorePet, error)
}
