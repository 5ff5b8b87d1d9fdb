package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"navius/app/domain"
	"navius/app/port"
)

// PetUsecase implements port.PetUsecase with cache-aside reads
type PetUsecase struct {
	repo   port.PetRepository
	cache  *CacheRegistry
	logger *slog.Logger
	now    func() time.Time
}

func NewPetUsecase(repo port.PetRepository, cache *CacheRegistry, logger *slog.Logger) *PetUsecase {
	return &PetUsecase{
		repo:   repo,
		cache:  cache,
		logger: logger.With("component", "pet_usecase"),
		now:    time.Now,
	}
}

func (u *PetUsecase) List(ctx context.Context) ([]*domain.Pet, error) {
	return u.repo.FindAll(ctx)
}

func (u *PetUsecase) Get(ctx context.Context, id uuid.UUID) (*domain.Pet, error) {
	return GetOrFetch(ctx, u.cache, ResourcePet, id.String(), func(ctx context.Context) (*domain.Pet, error) {
		return u.repo.FindByID(ctx, id)
	})
}

func (u *PetUsecase) Create(ctx context.Context, req domain.CreatePetRequest) (*domain.Pet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	created, err := u.repo.Create(ctx, domain.NewPet(req, u.now()))
	if err != nil {
		return nil, err
	}

	if err := Put(ctx, u.cache, ResourcePet, created.ID.String(), created); err != nil {
		u.logger.Warn("Failed to prime pet cache", "pet_id", created.ID, "error", err)
	}
	u.logger.Info("Pet created", "pet_id", created.ID, "pet_type", created.PetType)
	return created, nil
}

func (u *PetUsecase) Update(ctx context.Context, id uuid.UUID, req domain.UpdatePetRequest) (*domain.Pet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pet, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(pet, u.now())

	updated, err := u.repo.Update(ctx, pet)
	if err != nil {
		return nil, err
	}

	u.invalidate(ctx, id)
	return updated, nil
}

func (u *PetUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return err
	}

	u.invalidate(ctx, id)
	u.logger.Info("Pet deleted", "pet_id", id)
	return nil
}

func (u *PetUsecase) invalidate(ctx context.Context, id uuid.UUID) {
	if err := u.cache.Invalidate(ctx, ResourcePet, id.String()); err != nil {
		u.logger.Warn("Failed to invalidate pet cache", "pet_id", id, "error", err)
	}
}

var _ port.PetUsecase = (*PetUsecase)(nil)
