package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recipe is a generated recipe, unique per user and cleaned name
type Recipe struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"column:user_id;not null;uniqueIndex:idx_recipes_user_name" json:"user_id"`
	Name       string    `gorm:"size:255;not null;uniqueIndex:idx_recipes_user_name" json:"name"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	IsFavorite bool      `gorm:"not null;default:false" json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecipeRequest is the append-only log of parameters collected by the recipe dialogue
type RecipeRequest struct {
	ID                   uuid.UUID                   `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID               int64                       `gorm:"column:user_id;not null;index" json:"user_id"`
	Cuisine              string                      `gorm:"size:64;not null" json:"cuisine" validate:"required"`
	MealType             string                      `gorm:"column:meal;size:64;not null" json:"meal_type" validate:"required"`
	Servings             int                         `gorm:"not null" json:"servings" validate:"gt=0"`
	TimeLimit            int                         `gorm:"column:time_limit;not null" json:"time_limit" validate:"gt=0"`
	AvailableIngredients datatypes.JSONSlice[string] `gorm:"column:ingredients" json:"available_ingredients"`
	CreatedAt            time.Time                   `json:"created_at"`
}

// BeforeCreate assigns the request id
func (r *RecipeRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
