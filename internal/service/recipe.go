package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pageza/alchemorsel-bot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRecipeNotFound is returned when no recipe matches the user and name
var ErrRecipeNotFound = errors.New("recipe not found")

var (
	ordinalPrefix = regexp.MustCompile(`^\s*\d+\s*(?:[.):]|\s-)\s*`)
	titleLabel    = regexp.MustCompile(`(?i)^\s*title\s*\**\s*:[\s*]*`)
)

// CleanRecipeName strips leading numbering like "3.", "1)" or "12 - " and a
// "Title:" label from a generated title. A hyphen glued to the number, as in
// "30-Minute Pad Thai", is part of the name.
func CleanRecipeName(raw string) string {
	name := strings.TrimSpace(raw)
	for {
		cleaned := ordinalPrefix.ReplaceAllString(name, "")
		cleaned = strings.TrimSpace(titleLabel.ReplaceAllString(cleaned, ""))
		if cleaned == name {
			return name
		}
		name = cleaned
	}
}

// RecipeService handles recipe operations
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// SaveRecipe stores a generated recipe under its cleaned name. A recipe with
// the same user and name is overwritten in place, keeping its id and
// favorite flag.
func (s *RecipeService) SaveRecipe(ctx context.Context, userID int64, rawName, body string) (uint, error) {
	name := CleanRecipeName(rawName)

	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Recipes may be saved before onboarding
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.UserPreferences{UserID: userID}).Error; err != nil {
			return fmt.Errorf("failed to ensure user row: %w", err)
		}

		var existing models.Recipe
		err := tx.Where("user_id = ? AND name = ?", userID, name).Take(&existing).Error
		switch {
		case err == nil:
			id = existing.ID
			return tx.Model(&existing).Updates(map[string]any{
				"body":       body,
				"created_at": time.Now(),
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			recipe := models.Recipe{UserID: userID, Name: name, Body: body}
			if err := tx.Create(&recipe).Error; err != nil {
				return err
			}
			id = recipe.ID
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save recipe %q: %w", name, err)
	}
	return id, nil
}

// SetFavorite sets the favorite flag on a recipe the user owns. It reports
// false without error when no such recipe exists.
func (s *RecipeService) SetFavorite(ctx context.Context, userID int64, recipeID uint, favorite bool) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("id = ? AND user_id = ?", recipeID, userID).
		Update("is_favorite", favorite)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update favorite %d: %w", recipeID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ClearFavorites unmarks every favorite of the user
func (s *RecipeService) ClearFavorites(ctx context.Context, userID int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("user_id = ? AND is_favorite = ?", userID, true).
		Update("is_favorite", false)
	if res.Error != nil {
		return false, fmt.Errorf("failed to clear favorites: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListFavorites returns the trimmed, non-empty names of the user's favorites
func (s *RecipeService) ListFavorites(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("user_id = ? AND is_favorite = ?", userID, true).
		Order("id").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	favorites := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			favorites = append(favorites, name)
		}
	}
	return favorites, nil
}

// GetRecipe returns the body of the recipe with the exact name
func (s *RecipeService) GetRecipe(ctx context.Context, userID int64, name string) (string, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).Take(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrRecipeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get recipe %q: %w", name, err)
	}
	return recipe.Body, nil
}

// LogRecipeRequest appends the request to the audit log
func (s *RecipeService) LogRecipeRequest(ctx context.Context, req *models.RecipeRequest) error {
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to log recipe request: %w", err)
	}
	return nil
}
