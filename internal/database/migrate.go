package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/alchemorsel-bot/internal/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNoMigrations is returned by RollbackLast when nothing has been applied
var ErrNoMigrations = errors.New("no migrations to rollback")

// Migration is one versioned schema change
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
	Down    func(tx *gorm.DB) error
}

// SchemaMigration records an applied migration
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// MigrationState pairs a known migration with its applied record, if any
type MigrationState struct {
	Migration
	Applied   bool
	AppliedAt time.Time
}

// Table shapes as of the migration that introduced them. They are frozen so
// later model changes never rewrite history.

type usersV1 struct {
	UserID              int64                       `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	DietaryRestrictions datatypes.JSONSlice[string] `gorm:"column:dietary"`
	SkillLevel          string                      `gorm:"column:skill;size:32"`
	BudgetRange         string                      `gorm:"column:budget;size:32"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (usersV1) TableName() string { return "users" }

type recipeRequestsV2 struct {
	ID                   uuid.UUID                   `gorm:"type:varchar(36);primaryKey"`
	UserID               int64                       `gorm:"column:user_id;not null;index"`
	Cuisine              string                      `gorm:"size:64;not null"`
	MealType             string                      `gorm:"column:meal;size:64;not null"`
	Servings             int                         `gorm:"not null"`
	TimeLimit            int                         `gorm:"column:time_limit;not null"`
	AvailableIngredients datatypes.JSONSlice[string] `gorm:"column:ingredients"`
	CreatedAt            time.Time
}

func (recipeRequestsV2) TableName() string { return "recipe_requests" }

type recipesV3 struct {
	ID         uint    `gorm:"primaryKey"`
	UserID     int64   `gorm:"column:user_id;not null;uniqueIndex:idx_recipes_user_name"`
	User       usersV1 `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
	Name       string  `gorm:"size:255;not null;uniqueIndex:idx_recipes_user_name"`
	Body       string  `gorm:"type:text;not null"`
	IsFavorite bool    `gorm:"not null;default:false"`
	CreatedAt  time.Time
}

func (recipesV3) TableName() string { return "recipes" }

type usersV4 struct {
	usersV1
	DislikedIngredients datatypes.JSONSlice[string] `gorm:"column:disliked"`
}

func (usersV4) TableName() string { return "users" }

// Migrations lists every schema version in order
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_users",
		Up: func(tx *gorm.DB) error {
			return tx.Migrator().CreateTable(&usersV1{})
		},
		Down: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable("users")
		},
	},
	{
		Version: 2,
		Name:    "create_recipe_requests",
		Up: func(tx *gorm.DB) error {
			return tx.Migrator().CreateTable(&recipeRequestsV2{})
		},
		Down: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable("recipe_requests")
		},
	},
	{
		Version: 3,
		Name:    "create_recipes",
		Up: func(tx *gorm.DB) error {
			return tx.Migrator().CreateTable(&recipesV3{})
		},
		Down: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable("recipes")
		},
	},
	{
		Version: 4,
		Name:    "add_users_disliked",
		Up: func(tx *gorm.DB) error {
			if tx.Migrator().HasColumn(&usersV4{}, "disliked") {
				return nil
			}
			return tx.Migrator().AddColumn(&usersV4{}, "DislikedIngredients")
		},
		Down: func(tx *gorm.DB) error {
			return tx.Migrator().DropColumn(&usersV4{}, "disliked")
		},
	},
}

// RunMigrations applies every migration whose version is not yet recorded
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range Migrations {
		var count int64
		if err := db.Model(&SchemaMigration{}).Where("version = ?", m.Version).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			logger.Logger.Debug().Int("version", m.Version).Str("name", m.Name).Msg("Skipping migration (already applied)")
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d_%s: %w", m.Version, m.Name, err)
		}

		logger.Logger.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applied migration")
	}

	return nil
}

// Status reports every known migration and whether it has been applied
func Status(db *gorm.DB) ([]MigrationState, error) {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []SchemaMigration
	if err := db.Order("version").Find(&applied).Error; err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	byVersion := make(map[int]SchemaMigration, len(applied))
	for _, a := range applied {
		byVersion[a.Version] = a
	}

	states := make([]MigrationState, 0, len(Migrations))
	for _, m := range Migrations {
		state := MigrationState{Migration: m}
		if a, ok := byVersion[m.Version]; ok {
			state.Applied = true
			state.AppliedAt = a.AppliedAt
		}
		states = append(states, state)
	}
	return states, nil
}

// RollbackLast reverts the highest applied migration and returns it
func RollbackLast(db *gorm.DB) (*Migration, error) {
	var last SchemaMigration
	err := db.Order("version DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoMigrations
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last migration: %w", err)
	}

	var target *Migration
	for i := range Migrations {
		if Migrations[i].Version == last.Version {
			target = &Migrations[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("no rollback step for migration %d_%s", last.Version, last.Name)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := target.Down(tx); err != nil {
			return err
		}
		return tx.Where("version = ?", target.Version).Delete(&SchemaMigration{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rollback migration %d_%s: %w", target.Version, target.Name, err)
	}

	logger.Logger.Info().Int("version", target.Version).Str("name", target.Name).Msg("Rolled back migration")
	return target, nil
}
