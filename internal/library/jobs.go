package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a job record.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the job has finished.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// Job records one sync, match, or align run against a target.
type Job struct {
	ID           string
	Kind         string
	TargetID     int64
	Status       JobStatus
	Progress     float64
	Synced       int
	Total        int
	ErrorKind    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   *time.Time
}

const jobColumns = "id, kind, target_id, status, progress, synced, total, error_kind, error_message, created_at, updated_at, finished_at"

func scanJob(row scanner) (*Job, error) {
	var (
		j           Job
		status      string
		errorKind   sql.NullString
		errorMsg    sql.NullString
		createdRaw  string
		updatedRaw  string
		finishedRaw sql.NullString
	)
	if err := row.Scan(&j.ID, &j.Kind, &j.TargetID, &status, &j.Progress, &j.Synced, &j.Total,
		&errorKind, &errorMsg, &createdRaw, &updatedRaw, &finishedRaw); err != nil {
		return nil, err
	}
	j.Status = JobStatus(status)
	j.ErrorKind = errorKind.String
	j.ErrorMessage = errorMsg.String
	var err error
	if j.CreatedAt, err = parseTimeString(createdRaw); err != nil {
		return nil, err
	}
	if j.UpdatedAt, err = parseTimeString(updatedRaw); err != nil {
		return nil, err
	}
	if finishedRaw.Valid {
		finished, err := parseTimeString(finishedRaw.String)
		if err != nil {
			return nil, err
		}
		j.FinishedAt = &finished
	}
	return &j, nil
}

// CreateJob stores a new job record.
func (c *conn) CreateJob(ctx context.Context, j *Job) error {
	if j == nil || j.ID == "" {
		return errors.New("job id is required")
	}
	now := time.Now().UTC()
	j.CreatedAt, j.UpdatedAt = now, now
	if j.Status == "" {
		j.Status = JobPending
	}
	if _, err := c.q.ExecContext(ctx,
		`INSERT INTO jobs (id, kind, target_id, status, progress, synced, total, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Kind, j.TargetID, string(j.Status), j.Progress, j.Synced, j.Total, formatTime(now), formatTime(now),
	); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// UpdateJob persists status, progress, and error fields of a job.
func (c *conn) UpdateJob(ctx context.Context, j *Job) error {
	j.UpdatedAt = time.Now().UTC()
	if j.Status.Terminal() && j.FinishedAt == nil {
		finished := j.UpdatedAt
		j.FinishedAt = &finished
	}
	if _, err := c.q.ExecContext(ctx,
		`UPDATE jobs SET status = ?, progress = ?, synced = ?, total = ?, error_kind = ?, error_message = ?,
             updated_at = ?, finished_at = ?
         WHERE id = ?`,
		string(j.Status), j.Progress, j.Synced, j.Total, nullableString(j.ErrorKind), nullableString(j.ErrorMessage),
		formatTime(j.UpdatedAt), nullableTime(j.FinishedAt), j.ID,
	); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// GetJob fetches a job by id; it returns nil when absent.
func (c *conn) GetJob(ctx context.Context, id string) (*Job, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// LatestJob returns the most recent job of kind for target, or nil.
func (c *conn) LatestJob(ctx context.Context, kind string, targetID int64) (*Job, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE kind = ? AND target_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		kind, targetID)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest job: %w", err)
	}
	return j, nil
}

// ListJobs returns the most recent jobs, newest first.
func (c *conn) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.q.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}
