package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crewhq/marketing-crew/internal/api"
	"github.com/crewhq/marketing-crew/internal/config"
	"github.com/crewhq/marketing-crew/internal/db"
	"github.com/crewhq/marketing-crew/internal/events"
	"github.com/crewhq/marketing-crew/internal/jobs"
	"github.com/crewhq/marketing-crew/internal/logger"
	"github.com/crewhq/marketing-crew/internal/nats"
	"github.com/crewhq/marketing-crew/internal/pipeline"
	"github.com/crewhq/marketing-crew/internal/websocket"
	"github.com/crewhq/marketing-crew/internal/worker"
)

func main() {
	logger.Init("crew-api")
	cfg := config.Load()

	var store jobs.Store
	var database *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		database, err = db.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer database.Close()

		if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
		}

		store = db.NewStore(database)
		api.SetDBConnection(database)
		logger.Logger.Info().Msg("Using Postgres job store")
	} else {
		store = jobs.NewMemoryStore()
		logger.Logger.Info().Msg("Using in-memory job store (single-process mode)")
	}

	manager := jobs.NewManager(store)

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	var natsClient *nats.Client
	if cfg.NATSURL != "" {
		var err error
		natsClient, err = nats.NewClient(cfg.NATSURL)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer natsClient.Close()

		// Relay worker-side progress and log events to websocket observers.
		hubSub := websocket.Subscriber(hub)
		if err := natsClient.SubscribeEvents(func(ev events.Event) { hubSub.Notify(ev) }); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to subscribe to worker events")
		}
		logger.Logger.Info().Str("url", cfg.NATSURL).Msg("NATS dispatch enabled")
	}

	// Without a shared database there is no separate worker process, so the
	// crew pool runs in-process.
	var pool *worker.Pool
	if cfg.DatabaseURL == "" {
		pipelineCfg, err := pipeline.Load(cfg.PipelinePath)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to load pipeline config")
		}
		model, err := pipeline.NewModel(cfg)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create LLM model")
		}

		runner := pipeline.NewRunner(pipelineCfg, model)
		pool = worker.NewPool(manager, runner, cfg.WorkerCount, time.Duration(cfg.PollInterval)*time.Second)
		pool.Subscribe(websocket.Subscriber(hub))
		pool.Start()
	}

	server := api.NewServer(manager, natsClient, hub, cfg.Port)
	go func() {
		if err := server.Start(); err != nil {
			logger.Logger.Fatal().Err(err).Msg("API server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Logger.Info().Msg("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server shutdown error")
	}
	if pool != nil {
		pool.Stop()
	}

	logger.Logger.Info().Msg("Server stopped")
}
