package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"navius/app/domain"
	mock_port "navius/app/mocks"
	apperrors "navius/app/utils/errors"
	"navius/app/utils/logger"
)

func newPetEcho(t *testing.T) (*echo.Echo, *mock_port.MockPetUsecase) {
	ctrl := gomock.NewController(t)
	uc := mock_port.NewMockPetUsecase(ctrl)
	h := NewPetHandler(uc, logger.Discard())

	e := newTestEcho()
	e.GET("/v1/pets", h.List)
	e.GET("/v1/pets/:id", h.Get)
	e.POST("/v1/pets", h.Create)
	e.PUT("/v1/pets/:id", h.Update)
	e.DELETE("/v1/pets/:id", h.Delete)
	return e, uc
}

func samplePet() *domain.Pet {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Pet{ID: uuid.New(), Name: "Rex", PetType: "dog", CreatedAt: now, UpdatedAt: now}
}

func TestPetHandler_Get(t *testing.T) {
	pet := samplePet()

	tests := []struct {
		name       string
		path       string
		setup      func(uc *mock_port.MockPetUsecase)
		wantStatus int
		wantCode   string
	}{
		{
			name: "found",
			path: "/v1/pets/" + pet.ID.String(),
			setup: func(uc *mock_port.MockPetUsecase) {
				uc.EXPECT().Get(gomock.Any(), pet.ID).Return(pet, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/v1/pets/" + pet.ID.String(),
			setup: func(uc *mock_port.MockPetUsecase) {
				uc.EXPECT().Get(gomock.Any(), pet.ID).Return(nil, apperrors.NewNotFound("pet"))
			},
			wantStatus: http.StatusNotFound,
			wantCode:   string(apperrors.ErrCodeNotFound),
		},
		{
			name:       "malformed id",
			path:       "/v1/pets/not-a-uuid",
			setup:      func(*mock_port.MockPetUsecase) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   string(apperrors.ErrCodeBadRequest),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, uc := newPetEcho(t)
			tt.setup(uc)

			rec := perform(e, http.MethodGet, tt.path, "")

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
				return
			}
			got := decode[domain.Pet](t, rec)
			assert.Equal(t, pet.ID, got.ID)
			assert.Equal(t, "Rex", got.Name)
		})
	}
}

func TestPetHandler_List(t *testing.T) {
	t.Run("empty list renders as array", func(t *testing.T) {
		e, uc := newPetEcho(t)
		uc.EXPECT().List(gomock.Any()).Return(nil, nil)

		rec := perform(e, http.MethodGet, "/v1/pets", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("pets", func(t *testing.T) {
		e, uc := newPetEcho(t)
		uc.EXPECT().List(gomock.Any()).Return([]*domain.Pet{samplePet(), samplePet()}, nil)

		rec := perform(e, http.MethodGet, "/v1/pets", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]domain.Pet](t, rec), 2)
	})
}

func TestPetHandler_Create(t *testing.T) {
	pet := samplePet()

	tests := []struct {
		name       string
		body       string
		setup      func(uc *mock_port.MockPetUsecase)
		wantStatus int
	}{
		{
			name: "created",
			body: `{"name":"Rex","pet_type":"dog"}`,
			setup: func(uc *mock_port.MockPetUsecase) {
				uc.EXPECT().
					Create(gomock.Any(), domain.CreatePetRequest{Name: "Rex", PetType: "dog"}).
					Return(pet, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "validation failure",
			body: `{"name":"","pet_type":"dog"}`,
			setup: func(uc *mock_port.MockPetUsecase) {
				uc.EXPECT().Create(gomock.Any(), gomock.Any()).
					Return(nil, apperrors.NewValidationError("name is required"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"name":`,
			setup:      func(*mock_port.MockPetUsecase) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, uc := newPetEcho(t)
			tt.setup(uc)

			rec := perform(e, http.MethodPost, "/v1/pets", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPetHandler_UpdateAndDelete(t *testing.T) {
	pet := samplePet()

	t.Run("update", func(t *testing.T) {
		e, uc := newPetEcho(t)
		name := "Max"
		uc.EXPECT().
			Update(gomock.Any(), pet.ID, domain.UpdatePetRequest{Name: &name}).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, req domain.UpdatePetRequest) (*domain.Pet, error) {
				updated := *pet
				updated.Name = *req.Name
				return &updated, nil
			})

		rec := perform(e, http.MethodPut, "/v1/pets/"+pet.ID.String(), `{"name":"Max"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Max", decode[domain.Pet](t, rec).Name)
	})

	t.Run("delete", func(t *testing.T) {
		e, uc := newPetEcho(t)
		uc.EXPECT().Delete(gomock.Any(), pet.ID).Return(nil)

		rec := perform(e, http.MethodDelete, "/v1/pets/"+pet.ID.String(), "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("delete missing", func(t *testing.T) {
		e, uc := newPetEcho(t)
		uc.EXPECT().Delete(gomock.Any(), pet.ID).Return(apperrors.NewNotFound("pet"))

		rec := perform(e, http.MethodDelete, "/v1/pets/"+pet.ID.String(), "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
