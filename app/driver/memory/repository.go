// Package memory holds in-process repositories used when no database is
// configured and for user accounts.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"navius/app/domain"
	apperrors "navius/app/utils/errors"
)

// Repository is a concurrency-safe store of entities keyed by id. FindAll
// returns entities in first-insertion order. Entities are stored as given.
type Repository[T domain.Entity] struct {
	resource string

	mu    sync.RWMutex
	items map[uuid.UUID]T
	order []uuid.UUID
}

// NewRepository creates an empty repository. resource names the entity in
// not-found errors.
func NewRepository[T domain.Entity](resource string) *Repository[T] {
	return &Repository[T]{
		resource: resource,
		items:    make(map[uuid.UUID]T),
	}
}

func (r *Repository[T]) FindByID(_ context.Context, id uuid.UUID) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		var zero T
		return zero, apperrors.NewNotFound(r.resource).WithContext("id", id.String())
	}
	return item, nil
}

func (r *Repository[T]) FindAll(_ context.Context) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

// Save validates and upserts entity
func (r *Repository[T]) Save(_ context.Context, entity T) (T, error) {
	if err := entity.Validate(); err != nil {
		var zero T
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := entity.GetID()
	if _, exists := r.items[id]; !exists {
		r.order = append(r.order, id)
	}
	r.items[id] = entity
	return entity, nil
}

// Delete reports whether an entity was removed
func (r *Repository[T]) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return true, nil
}

func (r *Repository[T]) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.items[id]
	return ok, nil
}

func (r *Repository[T]) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items), nil
}
