package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/alchemorsel-bot/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceService stores onboarding answers, one row per user
type PreferenceService struct {
	db *gorm.DB
}

// NewPreferenceService creates a new PreferenceService instance
func NewPreferenceService(db *gorm.DB) *PreferenceService {
	return &PreferenceService{db: db}
}

// SetPreferences creates or overwrites the user's row
func (s *PreferenceService) SetPreferences(ctx context.Context, prefs *models.UserPreferences) error {
	if prefs.DietaryRestrictions == nil {
		prefs.DietaryRestrictions = datatypes.JSONSlice[string]{}
	}
	if prefs.DislikedIngredients == nil {
		prefs.DislikedIngredients = datatypes.JSONSlice[string]{}
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"dietary", "skill", "disliked", "budget", "updated_at"}),
	}).Create(prefs).Error
	if err != nil {
		return fmt.Errorf("failed to save preferences for user %d: %w", prefs.UserID, err)
	}
	return nil
}

// GetPreferences returns the stored preferences, or the defaults when the
// user never completed onboarding
func (s *PreferenceService) GetPreferences(ctx context.Context, userID int64) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		defaults := models.DefaultPreferences(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences for user %d: %w", userID, err)
	}

	if prefs.IsEmpty() {
		defaults := models.DefaultPreferences(userID)
		return &defaults, nil
	}
	if prefs.DietaryRestrictions == nil {
		prefs.DietaryRestrictions = datatypes.JSONSlice[string]{}
	}
	if prefs.DislikedIngredients == nil {
		prefs.DislikedIngredients = datatypes.JSONSlice[string]{}
	}
	return &prefs, nil
}
