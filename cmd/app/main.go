package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/calsync/internal/bootstrap"
	"github.com/osse101/calsync/internal/config"
	"github.com/osse101/calsync/internal/database"
	"github.com/osse101/calsync/internal/handler"
	"github.com/osse101/calsync/internal/scheduler"
	"github.com/osse101/calsync/internal/server"
	"github.com/osse101/calsync/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		slog.Warn("Environment check failed", "error", err)
	}
	for _, w := range warnings {
		slog.Warn(w)
	}

	if err := run(cfg); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	dbPool, err := database.NewPool(context.Background(), cfg.GetDBConnString(), database.Options{
		MaxConns:        cfg.DBMaxConns,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
	})
	if err != nil {
		return err
	}

	if err := database.Migrate(context.Background(), dbPool); err != nil {
		dbPool.Close()
		return err
	}

	eventBus, publisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		dbPool.Close()
		return err
	}
	if err := bootstrap.RegisterEventHandlers(eventBus); err != nil {
		dbPool.Close()
		return err
	}

	repos := bootstrap.InitializeRepositories(dbPool)
	svc, err := bootstrap.InitializeServices(cfg, repos, publisher)
	if err != nil {
		dbPool.Close()
		return err
	}

	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize, cfg.JobTimeout)
	pool.Start()

	sched := scheduler.New(pool)
	if cfg.WebhookRenewSchedule != "" && svc.Webhooks.Enabled() {
		renewal := &worker.RenewalJob{Renewer: svc.Webhooks, Horizon: cfg.WebhookRenewHorizon}
		if err := sched.Schedule(cfg.WebhookRenewSchedule, renewal); err != nil {
			slog.Error("Invalid WEBHOOK_RENEW_SCHEDULE; renewal disabled", "schedule", cfg.WebhookRenewSchedule, "error", err)
		}
	}
	sched.Start()

	srv := server.NewServer(server.Config{
		Port:           cfg.Port,
		APIKey:         cfg.APIKey,
		TrustedProxies: cfg.TrustedProxies,
		WebhookRate:    cfg.WebhookRateLimit,
		WebhookBurst:   cfg.WebhookRateBurst,
	}, dbPool, server.Handlers{
		Integrations: handler.NewIntegrationHandlers(svc.OAuth, svc.Availability, cfg.AppURL),
		Tasks:        handler.NewTaskCalendarHandlers(svc.Engine),
		Webhooks:     handler.NewWebhookHandler(pool, svc.Engine),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case runErr = <-serverErr:
		if runErr != nil {
			slog.Error("Server failed", "error", runErr)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	bootstrap.GracefulShutdown(ctx, bootstrap.ShutdownComponents{
		Server:             srv,
		Scheduler:          sched,
		WorkerPool:         pool,
		ResilientPublisher: publisher,
		DB:                 dbPool,
	})
	return runErr
}
