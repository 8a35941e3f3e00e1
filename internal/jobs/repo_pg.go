package jobs

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo stores jobs in Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, type, dedupe_key, payload, status, priority, attempts, max_attempts,
       run_at, locked_at, locked_by, last_error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var j Job
	var payload []byte
	var lockedAt sql.NullTime
	var lockedBy sql.NullString
	var lastError sql.NullString
	if err := row.Scan(
		&j.ID,
		&j.Type,
		&j.DedupeKey,
		&payload,
		&j.Status,
		&j.Priority,
		&j.Attempts,
		&j.MaxAttempts,
		&j.RunAt,
		&lockedAt,
		&lockedBy,
		&lastError,
		&j.CreatedAt,
		&j.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	j.Payload = append([]byte(nil), payload...)
	if lockedAt.Valid {
		t := lockedAt.Time
		j.LockedAt = &t
	}
	if lockedBy.Valid {
		s := lockedBy.String
		j.LockedBy = &s
	}
	if lastError.Valid {
		s := lastError.String
		j.LastError = &s
	}
	return j, nil
}

// Upsert inserts job or resets the row holding the same dedupe key.
func (r *PGRepo) Upsert(ctx context.Context, job Job) (Job, error) {
	const query = `
INSERT INTO jobs (id, type, dedupe_key, payload, status, priority, attempts, max_attempts, run_at, created_at, updated_at)
VALUES ($1, $2, $3, $4::jsonb, 'queued', $5, 0, $6, $7, $7, $7)
ON CONFLICT (dedupe_key) DO UPDATE
SET payload = EXCLUDED.payload,
    status = 'queued',
    priority = EXCLUDED.priority,
    attempts = 0,
    max_attempts = EXCLUDED.max_attempts,
    run_at = EXCLUDED.run_at,
    locked_at = NULL,
    locked_by = NULL,
    last_error = NULL,
    updated_at = EXCLUDED.updated_at
RETURNING ` + jobColumns

	payload := []byte(job.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	row := r.DB.QueryRowContext(ctx, query,
		job.ID,
		job.Type,
		job.DedupeKey,
		string(payload),
		job.Priority,
		job.MaxAttempts,
		job.RunAt,
	)
	return scanJob(row)
}

// Claim picks the best runnable job inside a transaction and leases it.
// A job is runnable when it is queued and due, or running with a lease
// older than leaseTTL and attempts left.
func (r *PGRepo) Claim(ctx context.Context, workerID string, now time.Time, leaseTTL time.Duration) (Job, bool, error) {
	const pick = `
SELECT id
FROM jobs
WHERE (status = 'queued' AND run_at <= $1)
   OR (status = 'running' AND locked_at < $2 AND attempts < max_attempts)
ORDER BY priority DESC, run_at ASC, created_at ASC
LIMIT 1
FOR UPDATE SKIP LOCKED`

	const lease = `
UPDATE jobs
SET status = 'running',
    locked_by = $1,
    locked_at = $2,
    attempts = attempts + 1,
    updated_at = $2
WHERE id = $3
  AND ((status = 'queued' AND run_at <= $2)
    OR (status = 'running' AND locked_at < $4 AND attempts < max_attempts))`

	const load = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	staleBefore := now.Add(-leaseTTL)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Job{}, false, err
	}
	defer tx.Rollback()

	var id string
	if err := tx.QueryRowContext(ctx, pick, now, staleBefore).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, false, nil
		}
		return Job{}, false, err
	}

	res, err := tx.ExecContext(ctx, lease, workerID, now, id, staleBefore)
	if err != nil {
		return Job{}, false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Job{}, false, nil
	}

	job, err := scanJob(tx.QueryRowContext(ctx, load, id))
	if err != nil {
		return Job{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return Job{}, false, err
	}
	return job, true, nil
}

// Complete marks a leased job done.
func (r *PGRepo) Complete(ctx context.Context, jobID, workerID string) error {
	const query = `
UPDATE jobs
SET status = 'done',
    locked_at = NULL,
    locked_by = NULL,
    last_error = NULL,
    updated_at = now()
WHERE id = $1 AND locked_by = $2 AND status = 'running'`

	return r.execLeased(ctx, query, jobID, workerID)
}

// Reschedule releases a leased job back to the queue at runAt.
func (r *PGRepo) Reschedule(ctx context.Context, jobID, workerID string, runAt time.Time, lastError string) error {
	const query = `
UPDATE jobs
SET status = 'queued',
    run_at = $3,
    last_error = $4,
    locked_at = NULL,
    locked_by = NULL,
    updated_at = now()
WHERE id = $1 AND locked_by = $2 AND status = 'running'`

	return r.execLeased(ctx, query, jobID, workerID, runAt, lastError)
}

// Fail marks a leased job permanently failed.
func (r *PGRepo) Fail(ctx context.Context, jobID, workerID, lastError string) error {
	const query = `
UPDATE jobs
SET status = 'failed',
    last_error = $3,
    locked_at = NULL,
    locked_by = NULL,
    updated_at = now()
WHERE id = $1 AND locked_by = $2 AND status = 'running'`

	return r.execLeased(ctx, query, jobID, workerID, lastError)
}

func (r *PGRepo) execLeased(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLeaseLost
	}
	return nil
}

// ExpireStale fails running jobs whose lease expired after the last
// allowed attempt.
func (r *PGRepo) ExpireStale(ctx context.Context, now time.Time, leaseTTL time.Duration) ([]Job, error) {
	const query = `
UPDATE jobs
SET status = 'failed',
    last_error = $3,
    locked_at = NULL,
    locked_by = NULL,
    updated_at = $1
WHERE status = 'running'
  AND locked_at < $2
  AND attempts >= max_attempts
RETURNING ` + jobColumns

	rows, err := r.DB.QueryContext(ctx, query, now, now.Add(-leaseTTL), ErrLeaseExpired.Error())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// Get returns a job by id.
func (r *PGRepo) Get(ctx context.Context, jobID string) (Job, error) {
	const query = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	return scanJob(r.DB.QueryRowContext(ctx, query, jobID))
}

// GetByDedupeKey returns the job holding key.
func (r *PGRepo) GetByDedupeKey(ctx context.Context, key string) (Job, error) {
	const query = `SELECT ` + jobColumns + ` FROM jobs WHERE dedupe_key = $1`
	return scanJob(r.DB.QueryRowContext(ctx, query, key))
}
