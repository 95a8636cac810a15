package bootstrap

import (
	"context"

	"github.com/mallardworks/duckhunt/internal/logger"
	"github.com/mallardworks/duckhunt/internal/repository"
	"github.com/mallardworks/duckhunt/internal/scheduler"
	"github.com/mallardworks/duckhunt/internal/server"
	"github.com/mallardworks/duckhunt/internal/worker"
)

// ShutdownComponents holds everything that needs a graceful stop.
type ShutdownComponents struct {
	Server    *server.Server
	Scheduler *scheduler.Scheduler
	Pool      *worker.Pool
	SaveJob   *worker.SaveJob
	Repo      repository.Player
}

// GracefulShutdown stops the application in dependency order:
// ops server first, then the periodic jobs, then a final synchronous save so
// no dirty state is lost, and the repository last.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	logger.Info(LogMsgShuttingDown)

	if components.Server != nil {
		if err := components.Server.Stop(ctx); err != nil {
			logger.Error(LogMsgServerForcedStop, "error", err)
		}
	}

	if components.Scheduler != nil {
		components.Scheduler.Stop()
	}
	if components.Pool != nil {
		components.Pool.Stop()
	}

	if components.SaveJob != nil {
		if err := components.SaveJob.Process(ctx); err != nil {
			logger.Error(LogMsgFinalSaveFailed, "error", err)
		}
	}

	if components.Repo != nil {
		if err := components.Repo.Close(); err != nil {
			logger.Error("Repository close failed", "error", err)
		}
	}

	logger.Info(LogMsgStopped)
}
