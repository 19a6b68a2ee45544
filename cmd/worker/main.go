package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/cache"
	"github.com/Saman-dev12/civic/internal/config"
	"github.com/Saman-dev12/civic/internal/database"
	"github.com/Saman-dev12/civic/internal/log"
	"github.com/Saman-dev12/civic/internal/notify"
	"github.com/Saman-dev12/civic/internal/queue"
	"github.com/Saman-dev12/civic/internal/repository"
	"github.com/Saman-dev12/civic/internal/settings"
	"github.com/Saman-dev12/civic/internal/storage"
	"github.com/Saman-dev12/civic/internal/tasks"
)

const settingsReloadInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	client, err := cache.NewRedisClient(ctx, cfg.Redis, "civic-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	// The API owns the settings document; the worker only re-reads it.
	settingsStore := settings.NewStore(objectStore.Document(cfg.Storage.SettingsObject), logger)
	if err := settingsStore.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to load settings, using defaults")
	}
	go reloadSettings(ctx, settingsStore, logger)

	processor := tasks.NewProcessor(tasks.Dependencies{
		Users:       repository.NewUserRepository(dbPool),
		Complaints:  repository.NewComplaintRepository(dbPool),
		Assignments: repository.NewAssignmentRepository(dbPool),
		Sessions:    repository.NewSessionRepository(dbPool),
		Settings:    settingsStore,
		Mailer:      notify.NewMailer(cfg.Mail, logger),
	}, logger)

	consumer := queue.NewConsumer(client, cfg.Events, logger, processor)
	if err := consumer.EnsureGroup(ctx); err != nil {
		logger.Fatal().Err(err).Msg("create consumer group failed")
	}

	logger.Info().
		Str("stream", cfg.Events.Stream).
		Str("group", cfg.Events.Group).
		Str("consumer", cfg.Events.Consumer).
		Msg("worker started")

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
	}
	logger.Info().Msg("worker exited cleanly")
}

func reloadSettings(ctx context.Context, store *settings.Store, logger zerolog.Logger) {
	ticker := time.NewTicker(settingsReloadInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Load(ctx); err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("settings reload failed")
			}
		}
	}
}
