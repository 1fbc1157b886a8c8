package models

import (
	"time"

	"gorm.io/datatypes"
)

// SkillLevel is the self-reported cooking ability collected during onboarding
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
	SkillAdvanced     SkillLevel = "Advanced"
)

// BudgetRange is a per-meal budget bracket in THB
type BudgetRange string

const (
	Budget100To200  BudgetRange = "100-200"
	Budget200To500  BudgetRange = "200-500"
	Budget500To1000 BudgetRange = "500-1000"
)

// Fallbacks returned for users that never completed onboarding.
const (
	DefaultSkillLevel  SkillLevel  = "beginner"
	DefaultBudgetRange BudgetRange = "medium"
)

// UserPreferences is one row per chat user. Rows may also be created bare
// when a recipe is saved before onboarding.
type UserPreferences struct {
	UserID              int64                       `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"user_id"`
	DietaryRestrictions datatypes.JSONSlice[string] `gorm:"column:dietary" json:"dietary_restrictions"`
	SkillLevel          SkillLevel                  `gorm:"column:skill;size:32" json:"skill_level" validate:"oneof=Beginner Intermediate Advanced"`
	DislikedIngredients datatypes.JSONSlice[string] `gorm:"column:disliked" json:"disliked_ingredients"`
	BudgetRange         BudgetRange                 `gorm:"column:budget;size:32" json:"budget_range" validate:"oneof=100-200 200-500 500-1000"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

func (UserPreferences) TableName() string {
	return "users"
}

// IsEmpty reports whether onboarding never filled the row
func (p UserPreferences) IsEmpty() bool {
	return p.SkillLevel == "" && p.BudgetRange == ""
}

// DefaultPreferences is what callers see for unknown or bare users
func DefaultPreferences(userID int64) UserPreferences {
	return UserPreferences{
		UserID:              userID,
		DietaryRestrictions: datatypes.JSONSlice[string]{},
		SkillLevel:          DefaultSkillLevel,
		DislikedIngredients: datatypes.JSONSlice[string]{},
		BudgetRange:         DefaultBudgetRange,
	}
}
