package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crewhq/marketing-crew/internal/config"
	"github.com/crewhq/marketing-crew/internal/db"
	"github.com/crewhq/marketing-crew/internal/events"
	"github.com/crewhq/marketing-crew/internal/jobs"
	"github.com/crewhq/marketing-crew/internal/logger"
	"github.com/crewhq/marketing-crew/internal/nats"
	"github.com/crewhq/marketing-crew/internal/pipeline"
	"github.com/crewhq/marketing-crew/internal/worker"
)

func main() {
	logger.Init("crew-worker")
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		logger.Logger.Fatal().Msg("DATABASE_URL is required: the worker shares the job store with the API server")
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	manager := jobs.NewManager(db.NewStore(database))

	pipelineCfg, err := pipeline.Load(cfg.PipelinePath)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to load pipeline config")
	}
	logger.Logger.Info().
		Str("crew", pipelineCfg.Crew).
		Int("stages", len(pipelineCfg.Stages)).
		Msg("Pipeline loaded")

	model, err := pipeline.NewModel(cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to create LLM model")
	}

	runner := pipeline.NewRunner(pipelineCfg, model)
	pool := worker.NewPool(manager, runner, cfg.WorkerCount, time.Duration(cfg.PollInterval)*time.Second)

	var consumer *nats.Consumer
	if cfg.NATSURL != "" {
		consumer, err = nats.NewConsumer(cfg.NATSURL, func(jobID string) { pool.Wake() })
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer consumer.Close()

		if err := consumer.Subscribe(); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to subscribe to dispatch")
		}
		pool.Subscribe(events.SubscriberFunc(consumer.PublishEvent))
		logger.Logger.Info().Str("url", cfg.NATSURL).Msg("NATS dispatch consumer started")
	}

	pool.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Logger.Info().Msg("Shutting down gracefully...")
	pool.Stop()
	logger.Logger.Info().Msg("Worker stopped")
}
