package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/auragate/parking-backend/internal/api"
	"github.com/auragate/parking-backend/internal/infrastructure/config"
	mongodb "github.com/auragate/parking-backend/internal/infrastructure/db/mongo"
	redisdb "github.com/auragate/parking-backend/internal/infrastructure/db/redis"
	"github.com/auragate/parking-backend/internal/infrastructure/queue"
	"github.com/auragate/parking-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	userRepo := mongodb.NewUserRepository(db)

	cleaner := queue.NewCleanupDispatcher(
		0, // default worker count
		userRepo,
		time.Duration(cfg.Cleanup.DelaySeconds)*time.Second,
		cfg.Cleanup.MaxRetries,
		logger.Component("cleanup"),
	)
	cleaner.Start(ctx)

	sweeper := queue.NewOrphanSweeper(
		userRepo,
		time.Duration(cfg.Cleanup.SweepMinutes)*time.Minute,
		time.Duration(cfg.Cleanup.SweepMinAgeMin)*time.Minute,
		logger.Component("sweeper"),
	)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("orphan sweeper failed to start")
	}
	defer sweeper.Stop()

	e, err := api.NewRouter(cfg, db, rdb, cleaner, log)
	if err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if serveErr := e.Start(":" + cfg.Port); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Fatal().Err(serveErr).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
