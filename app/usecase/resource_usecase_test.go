package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"navius/app/domain"
	mock_port "navius/app/mocks"
	apperrors "navius/app/utils/errors"
	"navius/app/utils/logger"
)

func TestResourceUsecase_GetPetstorePet(t *testing.T) {
	upstream := &domain.PetstorePet{
		ID:       7,
		Name:     "doggie",
		Status:   "available",
		Category: &domain.PetstoreCategory{ID: 1, Name: "Dogs"},
		Tags:     []domain.PetstoreTag{{ID: 1, Name: "friendly"}},
	}

	tests := []struct {
		name       string
		enabled    bool
		setupMocks func(*mock_port.MockPetstoreGateway)
		calls      int
		expectCode apperrors.ErrorCode
	}{
		{
			name:    "cached after first fetch",
			enabled: true,
			setupMocks: func(gw *mock_port.MockPetstoreGateway) {
				gw.EXPECT().GetPet(gomock.Any(), int64(7)).Return(upstream, nil).Times(1)
			},
			calls: 3,
		},
		{
			name:    "cache disabled fetches every time",
			enabled: false,
			setupMocks: func(gw *mock_port.MockPetstoreGateway) {
				gw.EXPECT().GetPet(gomock.Any(), int64(7)).Return(upstream, nil).Times(2)
			},
			calls: 2,
		},
		{
			name:    "upstream failure is returned",
			enabled: true,
			setupMocks: func(gw *mock_port.MockPetstoreGateway) {
				gw.EXPECT().GetPet(gomock.Any(), int64(7)).
					Return(nil, apperrors.NewExternalServiceError("petstore", assert.AnError)).Times(1)
			},
			calls:      1,
			expectCode: apperrors.ErrCodeExternalService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockGateway := mock_port.NewMockPetstoreGateway(ctrl)
			tt.setupMocks(mockGateway)

			uc := NewResourceUsecase(mockGateway, newTestRegistry(t, tt.enabled, ResourcePetstorePet), logger.Discard())

			for i := 0; i < tt.calls; i++ {
				got, err := uc.GetPetstorePet(context.Background(), 7)
				if tt.expectCode != "" {
					assert.True(t, apperrors.HasCode(err, tt.expectCode))
					assert.Nil(t, got)
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, upstream, got)
			}
		})
	}
}
