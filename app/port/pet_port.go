package port

//go:generate mockgen -source=pet_port.go -destination=../mocks/mock_pet_port.go

import (
	"context"

	"github.com/google/uuid"

	"navius/app/domain"
)

// PetRepository defines pet data access
type PetRepository interface {
	FindAll(ctx context.Context) ([]*domain.Pet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Pet, error)
	Create(ctx context.Context, pet *domain.Pet) (*domain.Pet, error)
	Update(ctx context.Context, pet *domain.Pet) (*domain.Pet, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// PetUsecase defines pet business logic
type PetUsecase interface {
	List(ctx context.Context) ([]*domain.Pet, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Pet, error)
	Create(ctx context.Context, req domain.CreatePetRequest) (*domain.Pet, error)
	Update(ctx context.Context, id uuid.UUID, req domain.UpdatePetRequest) (*domain.Pet, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
