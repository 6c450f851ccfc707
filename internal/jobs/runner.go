package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"platter/internal/library"
	"platter/internal/logging"
	"platter/internal/services"
)

// Job kinds.
const (
	KindSync            = "sync"
	KindFolders         = "folders"
	KindMatch           = "match"
	KindMatchCollection = "match_collection"
	KindAlign           = "align"
)

// ErrJobInProgress reports that another run holds the lock for the same kind
// and target.
var ErrJobInProgress = errors.New("job already in progress")

// Func is the work executed under a job record.
type Func func(ctx context.Context, h *Handle) error

// Runner executes work under job records and per-target locks.
type Runner struct {
	store   *library.Store
	lockDir string
	logger  *slog.Logger
}

// NewRunner constructs a Runner that keeps lock files in lockDir.
func NewRunner(store *library.Store, lockDir string, logger *slog.Logger) *Runner {
	return &Runner{store: store, lockDir: lockDir, logger: logging.NewComponentLogger(logger, "jobs")}
}

// Run executes fn as a job of kind against targetID. It returns the final job
// record together with fn's error. ErrJobInProgress is returned without a job
// record when another run holds the lock.
func (r *Runner) Run(ctx context.Context, kind string, targetID int64, fn Func) (*library.Job, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" || fn == nil {
		return nil, errors.New("job kind and function are required")
	}
	if err := os.MkdirAll(r.lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lockPath := filepath.Join(r.lockDir, fmt.Sprintf("%s-%d.lock", kind, targetID))
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire job lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrJobInProgress, kind, targetID)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release job lock", logging.String("lock", lockPath), logging.Error(err))
		}
	}()

	if err := r.failInterrupted(ctx, kind, targetID); err != nil {
		return nil, err
	}

	job := &library.Job{ID: uuid.NewString(), Kind: kind, TargetID: targetID, Status: library.JobPending}
	if err := r.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	jobCtx := services.WithStage(services.WithJobID(ctx, job.ID), kind)
	logger := logging.WithContext(jobCtx, r.logger).With(logging.Int64("target_id", targetID))
	logger.Info("job started", logging.String(logging.FieldEventType, "job_start"))

	job.Status = library.JobRunning
	if err := r.store.UpdateJob(jobCtx, job); err != nil {
		return job, fmt.Errorf("persist running transition: %w", err)
	}

	h := &Handle{store: r.store, job: job, logger: logger}
	runErr := fn(jobCtx, h)

	if runErr != nil {
		job.Status = library.JobFailed
		job.ErrorKind = services.FailureKind(runErr)
		job.ErrorMessage = strings.TrimSpace(runErr.Error())
		logging.ErrorWithContext(logger, "job failed", "job_failure",
			logging.String("failure_kind", job.ErrorKind),
			logging.Error(runErr),
		)
	} else {
		job.Status = library.JobSucceeded
		job.Progress = 100
		logger.Info("job completed", logging.String(logging.FieldEventType, "job_complete"))
	}
	// Persist the outcome even when ctx was cancelled mid-run.
	if err := r.store.UpdateJob(context.WithoutCancel(jobCtx), job); err != nil {
		logger.Error("failed to persist job outcome", logging.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("persist job outcome: %w", err)
		}
	}
	return job, runErr
}

// failInterrupted marks a non-terminal job left by a crashed process as
// failed. Holding the lock proves nobody is still running it.
func (r *Runner) failInterrupted(ctx context.Context, kind string, targetID int64) error {
	prev, err := r.store.LatestJob(ctx, kind, targetID)
	if err != nil {
		return fmt.Errorf("load previous job: %w", err)
	}
	if prev == nil || prev.Status.Terminal() {
		return nil
	}
	prev.Status = library.JobFailed
	prev.ErrorKind = "interrupted"
	prev.ErrorMessage = "process exited before the job finished"
	if err := r.store.UpdateJob(ctx, prev); err != nil {
		return fmt.Errorf("mark interrupted job: %w", err)
	}
	logging.WarnWithContext(r.logger, "previous job was interrupted", "job_interrupted",
		logging.String(logging.FieldJobID, prev.ID),
		logging.String("kind", kind),
		logging.Int64("target_id", targetID),
		logging.String(logging.FieldImpact, "previous run marked failed"),
	)
	return nil
}

// InProgress reports whether the latest job of kind for targetID has not
// reached a terminal state.
func (r *Runner) InProgress(ctx context.Context, kind string, targetID int64) (bool, error) {
	job, err := r.store.LatestJob(ctx, kind, targetID)
	if err != nil {
		return false, err
	}
	return job != nil && !job.Status.Terminal(), nil
}
