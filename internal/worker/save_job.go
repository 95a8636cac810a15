package worker

import (
	"context"

	"github.com/mallardworks/duckhunt/internal/logger"
	"github.com/mallardworks/duckhunt/internal/metrics"
	"github.com/mallardworks/duckhunt/internal/player"
	"github.com/mallardworks/duckhunt/internal/repository"
)

// SaveJob flushes dirty player state to the repository. Scheduled at a fixed
// interval; a tick with no mutations is a no-op.
type SaveJob struct {
	store   *player.Store
	repo    repository.Player
	backend string // metrics label
}

// NewSaveJob creates the periodic persistence job.
func NewSaveJob(store *player.Store, repo repository.Player, backend string) *SaveJob {
	return &SaveJob{store: store, repo: repo, backend: backend}
}

// Process persists a snapshot when the store has unsaved mutations.
// The dirty flag clears before the write so mutations racing the save are
// picked up by the next tick; a failed write re-marks it.
func (j *SaveJob) Process(ctx context.Context) error {
	if !j.store.Dirty() {
		return nil
	}
	j.store.ClearDirty()

	snapshot := j.store.Snapshot()
	if err := j.repo.SaveAll(ctx, snapshot); err != nil {
		j.store.MarkDirty()
		metrics.PersistenceFailures.WithLabelValues(j.backend).Inc()
		logger.FromContext(ctx).Error(LogMsgSaveFailed, "backend", j.backend, "error", err)
		return err
	}

	metrics.PersistenceSaves.WithLabelValues(j.backend).Inc()
	logger.FromContext(ctx).Debug(LogMsgSaveCompleted, "backend", j.backend, "players", len(snapshot))
	return nil
}
