package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pageza/alchemorsel-bot/config"
	"github.com/pageza/alchemorsel-bot/internal/database"
	"github.com/pageza/alchemorsel-bot/internal/logger"
)

func main() {
	// Parse command line flags
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	status := flag.Bool("status", false, "List migrations and whether they are applied")
	flag.Parse()

	cfg, err := config.LoadCommandConfig()
	if err != nil {
		logger.Init("recipe-bot-migrate", true)
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init("recipe-bot-migrate", cfg.Env.ConsoleLogs())
	logger.SetLevel(cfg.LogLevel)

	db, err := database.Open(cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	switch {
	case *status:
		states, err := database.Status(db)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to read migration status")
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
		for _, s := range states {
			appliedAt := "pending"
			if s.Applied {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", s.Version, s.Name, appliedAt)
		}
		w.Flush()

	case *rollback:
		m, err := database.RollbackLast(db)
		if errors.Is(err, database.ErrNoMigrations) {
			fmt.Println("No migrations to rollback")
			return
		}
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to rollback migration")
		}
		fmt.Printf("Successfully rolled back migration: %d_%s\n", m.Version, m.Name)

	default:
		if err := database.RunMigrations(db); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		fmt.Println("All migrations applied successfully.")
	}
}
