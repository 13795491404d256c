package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/parley/internal/api"
	"github.com/Rrens/parley/internal/api/handler"
	"github.com/Rrens/parley/internal/config"
	"github.com/Rrens/parley/internal/logger"
	"github.com/Rrens/parley/internal/repository/mongo"
	"github.com/Rrens/parley/internal/repository/postgres"
	"github.com/Rrens/parley/internal/repository/redis"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	envLoaded := ""
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			envLoaded = p
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logFile, err := logger.Setup(cfg.Logging, os.Getenv("ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	if envLoaded != "" {
		log.Debug().Str("path", envLoaded).Msg("loaded .env")
	}

	log.Info().
		Str("addr", cfg.Server.Addr()).
		Str("history_backend", cfg.Negotiation.HistoryBackend).
		Msg("starting parley API server")

	ctx := context.Background()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	deps := api.Dependencies{
		DB:    db,
		Redis: redisClient,
		Backends: map[string]handler.Pinger{
			"postgres": db,
			"redis":    redisClient,
		},
	}

	if cfg.Negotiation.HistoryBackend == "mongo" {
		mongoClient, err := mongo.NewClient(ctx, cfg.Mongo)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongo")
		}
		defer mongoClient.Close()

		history := mongo.NewHistoryRepository(mongoClient, cfg.Mongo.Collection)
		indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := history.EnsureIndexes(indexCtx); err != nil {
			log.Fatal().Err(err).Msg("failed to create history indexes")
		}
		cancel()

		deps.History = history
		deps.Backends["mongo"] = mongoClient
	}

	router, err := api.NewRouter(cfg, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
