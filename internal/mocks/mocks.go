package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockLLMService is a mock implementation of the recipe generator
type MockLLMService struct {
	mock.Mock
}

// Generate mocks the Generate method
func (m *MockLLMService) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockArchiver is a mock implementation of the recipe archive
type MockArchiver struct {
	mock.Mock
}

// ArchiveRecipe mocks the ArchiveRecipe method
func (m *MockArchiver) ArchiveRecipe(ctx context.Context, userID int64, recipeID uint, body string) error {
	args := m.Called(ctx, userID, recipeID, body)
	return args.Error(0)
}
