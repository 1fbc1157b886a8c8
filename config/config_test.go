package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_TOKEN", "LLM_API_KEY", "OPENAI_API_KEY", "LLM_API_KEY_FILE", "LLM_BASE_URL", "LLM_MODEL",
		"DB_DRIVER", "DB_PATH", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
		"REDIS_URL", "SESSION_TTL", "S3_BUCKET_NAME", "AWS_REGION", "HTTP_ADDR", "LOG_LEVEL",
		"ONBOARDING_ASK_DISLIKED", "ENV", "CI",
	} {
		t.Setenv(key, "")
	}
	// Point secrets at an empty directory so the host's /run/secrets never leaks in.
	t.Setenv("SECRETS_DIR", t.TempDir())
}

func TestLoadConfig(t *testing.T) {
	t.Run("should load defaults with required values set", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEGRAM_TOKEN", "tg-token")
		t.Setenv("LLM_API_KEY", "llm-key")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "tg-token", cfg.TelegramToken)
		assert.Equal(t, "llm-key", cfg.LLMAPIKey)
		assert.Equal(t, DriverSQLite, cfg.DBDriver)
		assert.Equal(t, "bot.db", cfg.DBPath)
		assert.Equal(t, defaultLLMModel, cfg.LLMModel)
		assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
		assert.True(t, cfg.AskDisliked)
		assert.Equal(t, Development, cfg.Env)
	})

	t.Run("should fail without telegram token", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_API_KEY", "llm-key")

		cfg, err := LoadConfig()
		assert.Nil(t, cfg)
		require.Error(t, err)

		var vErr ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "TELEGRAM_TOKEN", vErr.Field)
	})

	t.Run("should fail without LLM key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEGRAM_TOKEN", "tg-token")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LLM_API_KEY")
	})

	t.Run("should accept OPENAI_API_KEY", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEGRAM_TOKEN", "tg-token")
		t.Setenv("OPENAI_API_KEY", "openai-key")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "openai-key", cfg.LLMAPIKey)
	})

	t.Run("should read API key file", func(t *testing.T) {
		clearEnv(t)
		keyFile := filepath.Join(t.TempDir(), "key")
		require.NoError(t, os.WriteFile(keyFile, []byte("  file-key\n"), 0o600))
		t.Setenv("TELEGRAM_TOKEN", "tg-token")
		t.Setenv("LLM_API_KEY_FILE", keyFile)

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "file-key", cfg.LLMAPIKey)
	})

	t.Run("should read secrets directory", func(t *testing.T) {
		clearEnv(t)
		secrets := t.TempDir()
		t.Setenv("SECRETS_DIR", secrets)
		require.NoError(t, os.WriteFile(filepath.Join(secrets, "telegram_token"), []byte("secret-token\n"), 0o600))
		t.Setenv("LLM_API_KEY", "llm-key")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "secret-token", cfg.TelegramToken)
	})

	t.Run("should parse optional settings", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEGRAM_TOKEN", "tg-token")
		t.Setenv("LLM_API_KEY", "llm-key")
		t.Setenv("SESSION_TTL", "30m")
		t.Setenv("ONBOARDING_ASK_DISLIKED", "false")
		t.Setenv("ENV", "production")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
		assert.False(t, cfg.AskDisliked)
		assert.Equal(t, Production, cfg.Env)
	})

	t.Run("should reject malformed session TTL", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEGRAM_TOKEN", "tg-token")
		t.Setenv("LLM_API_KEY", "llm-key")
		t.Setenv("SESSION_TTL", "soon")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_TTL")
	})
}

func TestLoadCommandConfig(t *testing.T) {
	t.Run("should not require bot secrets", func(t *testing.T) {
		clearEnv(t)

		cfg, err := LoadCommandConfig()
		require.NoError(t, err)
		assert.Equal(t, DriverSQLite, cfg.DBDriver)
		assert.Equal(t, "bot.db", cfg.DBPath)
		assert.Empty(t, cfg.TelegramToken)
		assert.Empty(t, cfg.LLMAPIKey)
		assert.Equal(t, defaultLLMModel, cfg.LLMModel)
	})

	t.Run("should validate postgres settings", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_DRIVER", "Postgres")
		t.Setenv("DB_HOST", "db")

		_, err := LoadCommandConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_USER")
		assert.NotContains(t, err.Error(), "DB_HOST")
	})
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			TelegramToken: "tg-token",
			LLMAPIKey:     "llm-key",
			DBDriver:      DriverSQLite,
			DBPath:        "bot.db",
			SessionTTL:    time.Hour,
		}
	}

	t.Run("should accept sqlite config", func(t *testing.T) {
		assert.NoError(t, ValidateConfig(base()))
	})

	t.Run("should reject unknown driver", func(t *testing.T) {
		cfg := base()
		cfg.DBDriver = "mysql"
		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_DRIVER")
	})

	t.Run("should require postgres connection fields", func(t *testing.T) {
		cfg := base()
		cfg.DBDriver = DriverPostgres
		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_HOST")
		assert.Contains(t, err.Error(), "DB_USER")
		assert.Contains(t, err.Error(), "DB_NAME")
	})

	t.Run("should build postgres DSN", func(t *testing.T) {
		cfg := base()
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode = "db", "5432", "bot", "pw", "recipes", "disable"
		assert.Equal(t, "host=db port=5432 user=bot password=pw dbname=recipes sslmode=disable", cfg.PostgresDSN())
	})
}

func TestGetEnvironment(t *testing.T) {
	t.Run("should prefer CI", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CI", "true")
		t.Setenv("ENV", "production")
		assert.Equal(t, CI, GetEnvironment())
		assert.False(t, GetEnvironment().ConsoleLogs())
	})

	t.Run("should parse ENV case-insensitively", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "Production")
		assert.Equal(t, Production, GetEnvironment())
		assert.False(t, Production.ConsoleLogs())
	})

	t.Run("should default to development", func(t *testing.T) {
		clearEnv(t)
		assert.Equal(t, Development, GetEnvironment())
		assert.True(t, GetEnvironment().ConsoleLogs())
	})
}

func TestRecipeObjectKey(t *testing.T) {
	assert.Equal(t, "recipes/42/7.md", RecipeObjectKey(42, 7))
}
