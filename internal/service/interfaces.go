package service

import (
	"context"

	"github.com/pageza/alchemorsel-bot/internal/models"
)

// IPreferenceService defines the interface for per-user preference storage
type IPreferenceService interface {
	SetPreferences(ctx context.Context, prefs *models.UserPreferences) error
	GetPreferences(ctx context.Context, userID int64) (*models.UserPreferences, error)
}

// IRecipeService defines the interface for recipe storage
type IRecipeService interface {
	SaveRecipe(ctx context.Context, userID int64, rawName, body string) (uint, error)
	SetFavorite(ctx context.Context, userID int64, recipeID uint, favorite bool) (bool, error)
	ClearFavorites(ctx context.Context, userID int64) (bool, error)
	ListFavorites(ctx context.Context, userID int64) ([]string, error)
	GetRecipe(ctx context.Context, userID int64, name string) (string, error)
	LogRecipeRequest(ctx context.Context, req *models.RecipeRequest) error
}

// LLMServiceInterface turns a prompt into recipe text
type LLMServiceInterface interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
