package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/cache"
	"github.com/Saman-dev12/civic/internal/config"
	"github.com/Saman-dev12/civic/internal/database"
	"github.com/Saman-dev12/civic/internal/events"
	"github.com/Saman-dev12/civic/internal/handlers"
	"github.com/Saman-dev12/civic/internal/jobs"
	"github.com/Saman-dev12/civic/internal/log"
	"github.com/Saman-dev12/civic/internal/server"
	"github.com/Saman-dev12/civic/internal/settings"
	"github.com/Saman-dev12/civic/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "api")

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, dbPool, logger); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, "civic-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure settings bucket failed")
	}

	settingsStore := settings.NewStore(objectStore.Document(cfg.Storage.SettingsObject), logger)
	if err := settingsStore.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load settings")
	}

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, objectStore, settingsStore, cfg)
	if err := handlerSet.AuthService().EnsureAdmin(ctx, cfg.Bootstrap); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap admin failed")
	}
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	publisher := events.NewStreamPublisher(redisClient, cfg.Events.Stream, cfg.Events.MaxLen)
	scheduler := jobs.NewScheduler(publisher, cfg.Jobs, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	scheduler.Stop(shutdownCtx)

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
