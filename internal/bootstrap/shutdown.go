package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/calsync/internal/database"
	"github.com/osse101/calsync/internal/event"
	"github.com/osse101/calsync/internal/scheduler"
	"github.com/osse101/calsync/internal/server"
	"github.com/osse101/calsync/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
// Nil members are skipped.
type ShutdownComponents struct {
	Server             *server.Server
	Scheduler          *scheduler.Scheduler
	WorkerPool         *worker.Pool
	ResilientPublisher *event.ResilientPublisher
	DB                 database.Pool
}

// GracefulShutdown stops components in dependency order:
// the server stops accepting requests, the scheduler stops enqueuing,
// the pool drains queued notifications, the publisher flushes the
// events those produced, and the database closes last.
func GracefulShutdown(ctx context.Context, c ShutdownComponents) {
	if c.Server != nil {
		slog.Info(LogMsgShuttingDownServer)
		if err := c.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if c.Scheduler != nil {
		slog.Info(LogMsgShuttingDownScheduler)
		c.Scheduler.Stop(ctx)
	}

	if c.WorkerPool != nil {
		slog.Info(LogMsgShuttingDownWorkers)
		c.WorkerPool.Stop()
	}

	if c.ResilientPublisher != nil {
		slog.Info(LogMsgShuttingDownEventPublisher)
		if err := c.ResilientPublisher.Shutdown(ctx); err != nil {
			slog.Error(LogMsgResilientPublisherFailed, "error", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
		slog.Info(LogMsgDatabaseClosed)
	}

	slog.Info(LogMsgServerStopped)
}
