package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the bot
type Config struct {
	Env Environment

	// Telegram configuration
	TelegramToken string

	// LLM configuration
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// Database configuration
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration, empty RedisURL keeps sessions in memory
	RedisURL   string
	SessionTTL time.Duration

	// S3 recipe archive, disabled when S3Bucket is empty
	S3Bucket  string
	AWSRegion string

	// Ops server address for /healthz and /metrics, disabled when empty
	HTTPAddr string

	LogLevel string

	// AskDisliked keeps the disliked-ingredient step in onboarding
	AskDisliked bool
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultLLMBaseURL = "https://api.openai.com/v1/"
	defaultLLMModel   = "gpt-4o-mini"
	defaultDBPath     = "bot.db"
	defaultSessionTTL = 24 * time.Hour
)

// LoadConfig creates a new Config instance with values from .env, environment variables or secrets
func LoadConfig() (*Config, error) {
	// A missing .env file is fine, the process environment still applies.
	_ = godotenv.Load()

	cfg := &Config{
		Env:           GetEnvironment(),
		TelegramToken: lookup("TELEGRAM_TOKEN", "telegram_token"),
		LLMBaseURL:    getEnv("LLM_BASE_URL", defaultLLMBaseURL),
		LLMModel:      getEnv("LLM_MODEL", defaultLLMModel),
		RedisURL:      lookup("REDIS_URL", "redis_url"),
		S3Bucket:      os.Getenv("S3_BUCKET_NAME"),
		AWSRegion:     os.Getenv("AWS_REGION"),
		HTTPAddr:      os.Getenv("HTTP_ADDR"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
	loadDatabase(cfg)

	apiKey, err := loadLLMAPIKey()
	if err != nil {
		return nil, err
	}
	cfg.LLMAPIKey = apiKey

	cfg.SessionTTL = defaultSessionTTL
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, ValidationError{Field: "SESSION_TTL", Message: err.Error()}
		}
		cfg.SessionTTL = ttl
	}

	cfg.AskDisliked = true
	if raw := os.Getenv("ONBOARDING_ASK_DISLIKED"); raw != "" {
		ask, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, ValidationError{Field: "ONBOARDING_ASK_DISLIKED", Message: err.Error()}
		}
		cfg.AskDisliked = ask
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadCommandConfig reads what the migrate and seed commands need. Only the
// database settings are validated; the LLM key may be empty.
func LoadCommandConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:        GetEnvironment(),
		LLMBaseURL: getEnv("LLM_BASE_URL", defaultLLMBaseURL),
		LLMModel:   getEnv("LLM_MODEL", defaultLLMModel),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
	loadDatabase(cfg)

	apiKey, err := loadLLMAPIKey()
	if err != nil {
		return nil, err
	}
	cfg.LLMAPIKey = apiKey

	if err := errors.Join(validateDatabase(cfg)...); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadDatabase(cfg *Config) {
	cfg.DBDriver = strings.ToLower(getEnv("DB_DRIVER", DriverSQLite))
	cfg.DBPath = getEnv("DB_PATH", defaultDBPath)
	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = lookup("DB_USER", "db_user")
	cfg.DBPassword = lookup("DB_PASSWORD", "db_password")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
}

// PostgresDSN builds the lib/pq connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// loadLLMAPIKey reads the key from LLM_API_KEY, OPENAI_API_KEY or the file named by LLM_API_KEY_FILE
func loadLLMAPIKey() (string, error) {
	if key := lookup("LLM_API_KEY", "llm_api_key"); key != "" {
		return key, nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key, nil
	}

	keyFile := os.Getenv("LLM_API_KEY_FILE")
	if keyFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read API key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// lookup returns the environment variable or, when unset, the Docker secret of the same purpose
func lookup(envKey, secretName string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return readSecret(secretName)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
