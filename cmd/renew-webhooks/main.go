// Command renew-webhooks renews push channels expiring within the renewal
// horizon and exits. It is the cron-driven alternative to the in-process
// scheduler; run it with WEBHOOK_RENEW_SCHEDULE empty on the API.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/osse101/calsync/internal/bootstrap"
	"github.com/osse101/calsync/internal/config"
	"github.com/osse101/calsync/internal/database"
	"github.com/osse101/calsync/internal/event"
)

func main() {
	horizon := flag.Duration("horizon", 0, "renew channels expiring within this window (default WEBHOOK_RENEW_HORIZON)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *horizon <= 0 {
		*horizon = cfg.WebhookRenewHorizon
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, *horizon); err != nil {
		slog.Error("Webhook renewal failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, horizon time.Duration) error {
	dbPool, err := database.NewPool(ctx, cfg.GetDBConnString(), database.Options{
		MaxConns:        cfg.DBMaxConns,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
	})
	if err != nil {
		return err
	}
	defer dbPool.Close()

	bus := event.NewMemoryBus()
	if err := bootstrap.RegisterEventHandlers(bus); err != nil {
		return err
	}

	svc, err := bootstrap.InitializeServices(cfg, bootstrap.InitializeRepositories(dbPool), bus)
	if err != nil {
		return err
	}
	if !svc.Webhooks.Enabled() {
		slog.Info("Push notifications disabled; nothing to renew")
		return nil
	}

	report, err := svc.Webhooks.RenewExpiring(ctx, horizon)
	if err != nil {
		return err
	}
	for channelID, chErr := range report.Errors {
		slog.Warn("Channel renewal failed", "channel_id", channelID, "error", chErr)
	}
	slog.Info("Webhook renewal finished",
		"checked", report.Checked,
		"renewed", report.Renewed,
		"failed", report.Failed,
		"purged", report.Purged)
	return nil
}
