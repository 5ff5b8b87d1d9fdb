package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"navius/app/domain"
	"navius/app/port"
)

// ResourceUsecase serves upstream Petstore data through the cache registry
type ResourceUsecase struct {
	gateway port.PetstoreGateway
	cache   *CacheRegistry
	logger  *slog.Logger
}

func NewResourceUsecase(gateway port.PetstoreGateway, cache *CacheRegistry, logger *slog.Logger) *ResourceUsecase {
	return &ResourceUsecase{
		gateway: gateway,
		cache:   cache,
		logger:  logger.With("component", "resource_usecase"),
	}
}

func (u *ResourceUsecase) GetPetstorePet(ctx context.Context, id int64) (*domain.PetstorePet, error) {
	return GetOrFetch(ctx, u.cache, ResourcePetstorePet, strconv.FormatInt(id, 10), func(ctx context.Context) (*domain.PetstorePet, error) {
		u.logger.Debug("Fetching pet from upstream", "pet_id", id)
		return u.gateway.GetPet(ctx, id)
	})
}

var _ port.ResourceUsecase = (*ResourceUsecase)(nil)
