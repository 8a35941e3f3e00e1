package jobs

import (
	"context"
	"time"
)

// Repo persists jobs. Claim, Complete, Reschedule and Fail together
// implement the lease protocol: only the worker holding a running job may
// finish it.
type Repo interface {
	// Upsert inserts job, or resets the existing job with the same dedupe
	// key back to queued. It returns the stored row.
	Upsert(ctx context.Context, job Job) (Job, error)
	// Claim leases the best runnable job to workerID. ok is false when
	// nothing is runnable.
	Claim(ctx context.Context, workerID string, now time.Time, leaseTTL time.Duration) (job Job, ok bool, err error)
	Complete(ctx context.Context, jobID, workerID string) error
	Reschedule(ctx context.Context, jobID, workerID string, runAt time.Time, lastError string) error
	Fail(ctx context.Context, jobID, workerID, lastError string) error
	// ExpireStale fails running jobs whose lease expired on their last
	// allowed attempt and returns them. Claim never hands those out again.
	ExpireStale(ctx context.Context, now time.Time, leaseTTL time.Duration) ([]Job, error)
	Get(ctx context.Context, jobID string) (Job, error)
	GetByDedupeKey(ctx context.Context, key string) (Job, error)
}
