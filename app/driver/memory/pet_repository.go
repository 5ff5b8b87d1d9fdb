package memory

import (
	"context"

	"github.com/google/uuid"

	"navius/app/domain"
	"navius/app/port"
	apperrors "navius/app/utils/errors"
)

// PetRepository implements port.PetRepository on a Repository. Pets are
// copied in and out so callers never share stored state.
type PetRepository struct {
	store *Repository[*domain.Pet]
}

func NewPetRepository() port.PetRepository {
	return &PetRepository{store: NewRepository[*domain.Pet]("pet")}
}

func (r *PetRepository) FindAll(ctx context.Context) ([]*domain.Pet, error) {
	pets, err := r.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Pet, len(pets))
	for i, p := range pets {
		out[i] = clonePet(p)
	}
	return out, nil
}

func (r *PetRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Pet, error) {
	pet, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return clonePet(pet), nil
}

func (r *PetRepository) Create(ctx context.Context, pet *domain.Pet) (*domain.Pet, error) {
	exists, err := r.store.Exists(ctx, pet.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflict("pet already exists").WithContext("id", pet.ID.String())
	}

	saved, err := r.store.Save(ctx, clonePet(pet))
	if err != nil {
		return nil, err
	}
	return clonePet(saved), nil
}

func (r *PetRepository) Update(ctx context.Context, pet *domain.Pet) (*domain.Pet, error) {
	exists, err := r.store.Exists(ctx, pet.ID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewNotFound("pet").WithContext("id", pet.ID.String())
	}

	saved, err := r.store.Save(ctx, clonePet(pet))
	if err != nil {
		return nil, err
	}
	return clonePet(saved), nil
}

func (r *PetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := r.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFound("pet").WithContext("id", id.String())
	}
	return nil
}

func (r *PetRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.store.Count(ctx)
	return int64(n), err
}

func clonePet(p *domain.Pet) *domain.Pet {
	if p == nil {
		return nil
	}
	c := *p
	if p.Breed != nil {
		breed := *p.Breed
		c.Breed = &breed
	}
	if p.Age != nil {
		age := *p.Age
		c.Age = &age
	}
	return &c
}
