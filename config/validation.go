package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the configuration is complete enough to start the bot
func ValidateConfig(cfg *Config) error {
	var errs []error

	if cfg.TelegramToken == "" {
		errs = append(errs, ValidationError{Field: "TELEGRAM_TOKEN", Message: "is required"})
	}
	if cfg.LLMAPIKey == "" {
		errs = append(errs, ValidationError{Field: "LLM_API_KEY", Message: "LLM_API_KEY, OPENAI_API_KEY or LLM_API_KEY_FILE must be set"})
	}

	errs = append(errs, validateDatabase(cfg)...)

	if cfg.SessionTTL <= 0 {
		errs = append(errs, ValidationError{Field: "SESSION_TTL", Message: "must be positive"})
	}

	return errors.Join(errs...)
}

func validateDatabase(cfg *Config) []error {
	var errs []error
	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DBPath == "" {
			errs = append(errs, ValidationError{Field: "DB_PATH", Message: "is required for sqlite"})
		}
	case DriverPostgres:
		for field, value := range map[string]string{
			"DB_HOST": cfg.DBHost,
			"DB_USER": cfg.DBUser,
			"DB_NAME": cfg.DBName,
		} {
			if value == "" {
				errs = append(errs, ValidationError{Field: field, Message: "is required for postgres"})
			}
		}
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}
	return errs
}
