package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/alchemorsel-bot/config"
	"github.com/pageza/alchemorsel-bot/internal/bot"
	"github.com/pageza/alchemorsel-bot/internal/database"
	"github.com/pageza/alchemorsel-bot/internal/dialogue"
	"github.com/pageza/alchemorsel-bot/internal/logger"
	"github.com/pageza/alchemorsel-bot/internal/metrics"
	"github.com/pageza/alchemorsel-bot/internal/server"
	"github.com/pageza/alchemorsel-bot/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Init("recipe-bot", true)
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init("recipe-bot", cfg.Env.ConsoleLogs())
	logger.SetLevel(cfg.LogLevel)
	log := logger.Logger

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to connect to database")
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	checks := map[string]server.HealthCheck{
		"database": func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
	}

	var sessions dialogue.SessionStore
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		sessions = dialogue.NewRedisStore(rdb, cfg.SessionTTL)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Msg("Using Redis session store")
	} else {
		sessions = dialogue.NewMemoryStore(cfg.SessionTTL)
		log.Info().Msg("Using in-memory session store")
	}

	generator, err := service.NewLLMService(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM client")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	opts := dialogue.Options{
		AskDisliked: cfg.AskDisliked,
		Metrics:     m,
		Validate:    validator.New(),
	}
	if cfg.S3Bucket != "" {
		archive, err := config.NewS3Config(context.Background(), cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure recipe archive")
		}
		opts.Archiver = archive
		log.Info().Str("bucket", cfg.S3Bucket).Msg("Archiving recipes to S3")
	}

	prefs := service.NewPreferenceService(db)
	recipes := service.NewRecipeService(db)
	engine := dialogue.NewEngine(sessions, prefs, recipes, generator, opts)
	dispatcher := bot.NewDispatcher(engine, prefs, recipes, m)

	gateway, err := bot.NewTelegram(cfg.TelegramToken, dispatcher)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start Telegram gateway")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Channels to listen for errors coming from the servers
	opsErr := make(chan error, 1)
	gatewayDone := make(chan error, 1)

	var ops *server.Server
	if cfg.HTTPAddr != "" {
		ops = server.New(cfg.HTTPAddr, registry, checks)
		go func() {
			opsErr <- ops.Start()
		}()
	}

	go func() {
		log.Info().Msg("Starting bot...")
		gatewayDone <- gateway.Start(ctx)
	}()

	gatewayStopped := false
	select {
	case err := <-opsErr:
		if err != nil {
			log.Error().Err(err).Msg("Ops server error")
		}
		stop()
	case err := <-gatewayDone:
		gatewayStopped = true
		if err != nil {
			log.Error().Err(err).Msg("Gateway error")
		}
		stop()
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if ops != nil {
		if err := ops.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Ops server shutdown error")
		}
	}

	// In-flight updates finish before the database goes away
	if !gatewayStopped {
		select {
		case <-gatewayDone:
		case <-shutdownCtx.Done():
			log.Warn().Msg("Timed out waiting for in-flight updates")
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("Bot stopped")
}
