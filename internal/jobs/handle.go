package jobs

import (
	"context"
	"log/slog"
	"sync"

	"platter/internal/library"
	"platter/internal/logging"
)

// Handle lets running work report progress on its job record.
type Handle struct {
	store  *library.Store
	logger *slog.Logger

	mu  sync.Mutex
	job *library.Job
}

// ID returns the job identifier.
func (h *Handle) ID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.job.ID
}

// Logger returns the job-scoped logger.
func (h *Handle) Logger() *slog.Logger {
	return h.logger
}

// Progress persists a checkpoint. Persistence failures are logged and do not
// stop the job.
func (h *Handle) Progress(ctx context.Context, percent float64, synced, total int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.job.Progress = percent
	h.job.Synced = synced
	h.job.Total = total
	if err := h.store.UpdateJob(ctx, h.job); err != nil {
		h.logger.Warn("failed to persist job progress", logging.Error(err))
	}
}
