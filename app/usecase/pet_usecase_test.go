package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"navius/app/domain"
	mock_port "navius/app/mocks"
	apperrors "navius/app/utils/errors"
	"navius/app/utils/logger"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newTestPet() *domain.Pet {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Pet{
		ID:        uuid.New(),
		Name:      "Rex",
		PetType:   "dog",
		Breed:     strPtr("Beagle"),
		Age:       intPtr(3),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPetUsecase_Get(t *testing.T) {
	pet := newTestPet()

	tests := []struct {
		name       string
		setupMocks func(*mock_port.MockPetRepository)
		calls      int
		expectCode apperrors.ErrorCode
	}{
		{
			name: "second read served from cache",
			setupMocks: func(repo *mock_port.MockPetRepository) {
				repo.EXPECT().FindByID(gomock.Any(), pet.ID).Return(pet, nil).Times(1)
			},
			calls: 2,
		},
		{
			name: "not found is not cached",
			setupMocks: func(repo *mock_port.MockPetRepository) {
				repo.EXPECT().FindByID(gomock.Any(), pet.ID).Return(nil, apperrors.NewNotFound("pet")).Times(2)
			},
			calls:      2,
			expectCode: apperrors.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := mock_port.NewMockPetRepository(ctrl)
			tt.setupMocks(mockRepo)

			uc := NewPetUsecase(mockRepo, newTestRegistry(t, true, ResourcePet), logger.Discard())

			for i := 0; i < tt.calls; i++ {
				got, err := uc.Get(context.Background(), pet.ID)
				if tt.expectCode != "" {
					assert.True(t, apperrors.HasCode(err, tt.expectCode))
					assert.Nil(t, got)
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, pet.Name, got.Name)
				assert.Equal(t, pet.ID, got.ID)
			}
		})
	}
}

func TestPetUsecase_Create(t *testing.T) {
	tests := []struct {
		name       string
		req        domain.CreatePetRequest
		setupMocks func(*mock_port.MockPetRepository)
		expectErr  bool
	}{
		{
			name: "valid pet is created and cached",
			req:  domain.CreatePetRequest{Name: "Rex", PetType: "dog", Age: intPtr(2)},
			setupMocks: func(repo *mock_port.MockPetRepository) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, p *domain.Pet) (*domain.Pet, error) { return p, nil })
			},
		},
		{
			name:       "blank name is rejected",
			req:        domain.CreatePetRequest{Name: "", PetType: "dog"},
			setupMocks: func(*mock_port.MockPetRepository) {},
			expectErr:  true,
		},
		{
			name:       "age above 100 is rejected",
			req:        domain.CreatePetRequest{Name: "Old", PetType: "cat", Age: intPtr(101)},
			setupMocks: func(*mock_port.MockPetRepository) {},
			expectErr:  true,
		},
		{
			name: "repository error",
			req:  domain.CreatePetRequest{Name: "Rex", PetType: "dog"},
			setupMocks: func(repo *mock_port.MockPetRepository) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, apperrors.NewDatabaseError(assert.AnError))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := mock_port.NewMockPetRepository(ctrl)
			tt.setupMocks(mockRepo)

			registry := newTestRegistry(t, true, ResourcePet)
			uc := NewPetUsecase(mockRepo, registry, logger.Discard())

			pet, err := uc.Create(context.Background(), tt.req)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, pet)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, pet.ID)
			assert.Equal(t, tt.req.Name, pet.Name)

			// The freshly created pet is readable without a repository call.
			cached, err := uc.Get(context.Background(), pet.ID)
			require.NoError(t, err)
			assert.Equal(t, pet.ID, cached.ID)
		})
	}
}

func TestPetUsecase_UpdateInvalidatesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pet := newTestPet()
	renamed := *pet
	renamed.Name = "Max"

	mockRepo := mock_port.NewMockPetRepository(ctrl)
	gomock.InOrder(
		mockRepo.EXPECT().FindByID(gomock.Any(), pet.ID).Return(pet, nil),
		mockRepo.EXPECT().FindByID(gomock.Any(), pet.ID).Return(pet, nil),
		mockRepo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *domain.Pet) (*domain.Pet, error) {
				assert.Equal(t, "Max", p.Name)
				return &renamed, nil
			}),
		mockRepo.EXPECT().FindByID(gomock.Any(), pet.ID).Return(&renamed, nil),
	)

	uc := NewPetUsecase(mockRepo, newTestRegistry(t, true, ResourcePet), logger.Discard())
	ctx := context.Background()

	_, err := uc.Get(ctx, pet.ID)
	require.NoError(t, err)

	updated, err := uc.Update(ctx, pet.ID, domain.UpdatePetRequest{Name: strPtr("Max")})
	require.NoError(t, err)
	assert.Equal(t, "Max", updated.Name)

	got, err := uc.Get(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Max", got.Name)
}

func TestPetUsecase_UpdateValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_port.NewMockPetRepository(ctrl)
	uc := NewPetUsecase(mockRepo, newTestRegistry(t, true, ResourcePet), logger.Discard())

	_, err := uc.Update(context.Background(), uuid.New(), domain.UpdatePetRequest{Age: intPtr(-1)})
	assert.Error(t, err)
}

func TestPetUsecase_Delete(t *testing.T) {
	pet := newTestPet()

	tests := []struct {
		name       string
		setupMocks func(*mock_port.MockPetRepository)
		expectCode apperrors.ErrorCode
	}{
		{
			name: "deleted pet is evicted",
			setupMocks: func(repo *mock_port.MockPetRepository) {
				repo.EXPECT().Delete(gomock.Any(), pet.ID).Return(nil)
			},
		},
		{
			name: "missing pet",
			setupMocks: func(repo *mock_port.MockPetRepository) {
				repo.EXPECT().Delete(gomock.Any(), pet.ID).Return(apperrors.NewNotFound("pet"))
			},
			expectCode: apperrors.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := mock_port.NewMockPetRepository(ctrl)
			tt.setupMocks(mockRepo)

			ctx := context.Background()
			registry := newTestRegistry(t, true, ResourcePet)
			require.NoError(t, Put(ctx, registry, ResourcePet, pet.ID.String(), pet))

			uc := NewPetUsecase(mockRepo, registry, logger.Discard())
			err := uc.Delete(ctx, pet.ID)

			c, _ := registry.Cache(ResourcePet)
			exists, cacheErr := c.Exists(ctx, registry.Key(ResourcePet, pet.ID.String()))
			require.NoError(t, cacheErr)

			if tt.expectCode != "" {
				assert.True(t, apperrors.HasCode(err, tt.expectCode))
				assert.True(t, exists)
				return
			}
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestPetUsecase_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pets := []*domain.Pet{newTestPet(), newTestPet()}
	mockRepo := mock_port.NewMockPetRepository(ctrl)
	mockRepo.EXPECT().FindAll(gomock.Any()).Return(pets, nil)

	uc := NewPetUsecase(mockRepo, newTestRegistry(t, true, ResourcePet), logger.Discard())
	got, err := uc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
