package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/parley/internal/config"
	"github.com/Rrens/parley/internal/logger"
	"github.com/Rrens/parley/internal/repository/postgres"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps to migrate (0 = all)")
	source := flag.String("source", "file://migrations", "migration source URL")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if _, err := logger.Setup(cfg.Logging, "development"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	dir := postgres.MigrationDirection(*direction)
	if dir != postgres.MigrateUp && dir != postgres.MigrateDown {
		log.Fatal().Str("direction", *direction).Msg("direction must be up or down")
	}

	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("direction", string(dir)).
		Int("steps", *steps).
		Msg("running migrations")

	if err := postgres.RunMigrations(cfg.Database.DSN(), *source, dir, *steps); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}
