package mocks

import (
	"context"

	"github.com/pageza/alchemorsel-bot/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockPreferenceService is a mock implementation of the preference service
type MockPreferenceService struct {
	mock.Mock
}

// SetPreferences mocks the SetPreferences method
func (m *MockPreferenceService) SetPreferences(ctx context.Context, prefs *models.UserPreferences) error {
	args := m.Called(ctx, prefs)
	return args.Error(0)
}

// GetPreferences mocks the GetPreferences method
func (m *MockPreferenceService) GetPreferences(ctx context.Context, userID int64) (*models.UserPreferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPreferences), args.Error(1)
}
