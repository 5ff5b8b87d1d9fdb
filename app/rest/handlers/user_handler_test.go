package handlers

import (
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

func newUserEcho(t *testing.T) (*echo.Echo, *mock_port.MockUserUsecase) {
	ctrl := gomock.NewController(t)
	uc := mock_port.NewMockUserUsecase(ctrl)
	h := NewUserHandler(uc, logger.Discard())

	e := newTestEcho()
	e.GET("/v1/users", h.List)
	e.GET("/v1/users/:id", h.Get)
	e.POST("/v1/users", h.Create)
	e.PUT("/v1/users/:id", h.Update)
	e.DELETE("/v1/users/:id", h.Delete)
	return e, uc
}

func TestUserHandler_ListFilters(t *testing.T) {
	admin := domain.UserRoleAdmin
	active := false

	tests := []struct {
		name       string
		query      string
		wantFilter *domain.UserFilter
		wantStatus int
	}{
		{name: "no filter", query: "", wantFilter: &domain.UserFilter{}, wantStatus: http.StatusOK},
		{name: "role", query: "?role=admin", wantFilter: &domain.UserFilter{Role: &admin}, wantStatus: http.StatusOK},
		{name: "active", query: "?active=false", wantFilter: &domain.UserFilter{Active: &active}, wantStatus: http.StatusOK},
		{name: "unknown role", query: "?role=root", wantStatus: http.StatusBadRequest},
		{name: "bad active", query: "?active=maybe", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, uc := newUserEcho(t)
			if tt.wantFilter != nil {
				uc.EXPECT().List(gomock.Any(), *tt.wantFilter).Return(nil, nil)
			}

			rec := perform(e, http.MethodGet, "/v1/users"+tt.query, "")

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `[]`, rec.Body.String())
			}
		})
	}
}

func TestUserHandler_Create(t *testing.T) {
	now := time.Now().UTC()
	user := domain.NewUser("jdoe", "jdoe@example.com", "John Doe", now)

	t.Run("created", func(t *testing.T) {
		e, uc := newUserEcho(t)
		uc.EXPECT().
			Create(gomock.Any(), domain.CreateUserInput{Username: "jdoe", Email: "jdoe@example.com", DisplayName: "John Doe"}).
			Return(user, nil)

		rec := perform(e, http.MethodPost, "/v1/users", `{"username":"jdoe","email":"jdoe@example.com","display_name":"John Doe"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		got := decode[domain.User](t, rec)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, domain.UserRoleUser, got.Role)
	})

	t.Run("duplicate username", func(t *testing.T) {
		e, uc := newUserEcho(t)
		uc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, apperrors.NewConflict("username taken"))

		rec := perform(e, http.MethodPost, "/v1/users", `{"username":"jdoe","email":"jdoe@example.com","display_name":"John Doe"}`)

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, string(apperrors.ErrCodeConflict), errorCode(t, rec))
	})
}

func TestUserHandler_GetUpdateDelete(t *testing.T) {
	id := uuid.New()

	t.Run("get missing", func(t *testing.T) {
		e, uc := newUserEcho(t)
		uc.EXPECT().Get(gomock.Any(), id).Return(nil, apperrors.NewNotFound("user"))

		rec := perform(e, http.MethodGet, "/v1/users/"+id.String(), "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update role", func(t *testing.T) {
		e, uc := newUserEcho(t)
		role := domain.UserRoleEditor
		updated := &domain.User{ID: id, Username: "jdoe", Role: role}
		uc.EXPECT().Update(gomock.Any(), id, domain.UpdateUserInput{Role: &role}).Return(updated, nil)

		rec := perform(e, http.MethodPut, "/v1/users/"+id.String(), `{"role":"editor"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.UserRoleEditor, decode[domain.User](t, rec).Role)
	})

	t.Run("delete", func(t *testing.T) {
		e, uc := newUserEcho(t)
		uc.EXPECT().Delete(gomock.Any(), id).Return(nil)

		rec := perform(e, http.MethodDelete, "/v1/users/"+id.String(), "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		e, _ := newUserEcho(t)

		rec := perform(e, http.MethodDelete, "/v1/users/42", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPetstoreHandler_GetPet(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setup      func(uc *mock_port.MockResourceUsecase)
		wantStatus int
	}{
		{
			name: "found",
			path: "/v1/petstore/pets/7",
			setup: func(uc *mock_port.MockResourceUsecase) {
				uc.EXPECT().GetPetstorePet(gomock.Any(), int64(7)).Return(&domain.PetstorePet{ID: 7, Name: "doggie"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "upstream failure",
			path: "/v1/petstore/pets/7",
			setup: func(uc *mock_port.MockResourceUsecase) {
				uc.EXPECT().GetPetstorePet(gomock.Any(), int64(7)).
					Return(nil, apperrors.NewExternalServiceError("petstore", assert.AnError))
			},
			wantStatus: apperrors.GetHTTPStatusCode(apperrors.NewExternalServiceError("petstore", assert.AnError)),
		},
		{
			name:       "non-numeric id",
			path:       "/v1/petstore/pets/abc",
			setup:      func(*mock_port.MockResourceUsecase) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			uc := mock_port.NewMockResourceUsecase(ctrl)
			tt.setup(uc)

			e := newTestEcho()
			e.GET("/v1/petstore/pets/:id", NewPetstoreHandler(uc).GetPet)

			rec := perform(e, http.MethodGet, tt.path, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
