package mocks

import (
	"context"

	"github.com/pageza/alchemorsel-bot/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

// SaveRecipe mocks the SaveRecipe method
func (m *MockRecipeService) SaveRecipe(ctx context.Context, userID int64, rawName, body string) (uint, error) {
	args := m.Called(ctx, userID, rawName, body)
	return args.Get(0).(uint), args.Error(1)
}

// SetFavorite mocks the SetFavorite method
func (m *MockRecipeService) SetFavorite(ctx context.Context, userID int64, recipeID uint, favorite bool) (bool, error) {
	args := m.Called(ctx, userID, recipeID, favorite)
	return args.Bool(0), args.Error(1)
}

// ClearFavorites mocks the ClearFavorites method
func (m *MockRecipeService) ClearFavorites(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// ListFavorites mocks the ListFavorites method
func (m *MockRecipeService) ListFavorites(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// GetRecipe mocks the GetRecipe method
func (m *MockRecipeService) GetRecipe(ctx context.Context, userID int64, name string) (string, error) {
	args := m.Called(ctx, userID, name)
	return args.String(0), args.Error(1)
}

// LogRecipeRequest mocks the LogRecipeRequest method
func (m *MockRecipeService) LogRecipeRequest(ctx context.Context, req *models.RecipeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
