package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores jobs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu    sync.Mutex
	byID  map[string]Job
	byKey map[string]string
	now   func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:  make(map[string]Job),
		byKey: make(map[string]string),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Upsert inserts job or resets the job holding the same dedupe key.
func (r *MemoryRepo) Upsert(ctx context.Context, job Job) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byKey[job.DedupeKey]; ok {
		existing := r.byID[id]
		existing.Payload = job.Payload
		existing.Status = StatusQueued
		existing.Priority = job.Priority
		existing.Attempts = 0
		existing.MaxAttempts = job.MaxAttempts
		existing.RunAt = job.RunAt
		existing.LockedAt = nil
		existing.LockedBy = nil
		existing.LastError = nil
		existing.UpdatedAt = job.RunAt
		r.byID[id] = existing
		return existing, nil
	}

	job.Status = StatusQueued
	job.Attempts = 0
	job.LockedAt = nil
	job.LockedBy = nil
	job.LastError = nil
	job.CreatedAt = job.RunAt
	job.UpdatedAt = job.RunAt
	r.byID[job.ID] = job
	r.byKey[job.DedupeKey] = job.ID
	return job, nil
}

// Claim leases the best runnable job to workerID.
func (r *MemoryRepo) Claim(ctx context.Context, workerID string, now time.Time, leaseTTL time.Duration) (Job, bool, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	staleBefore := now.Add(-leaseTTL)
	var candidates []Job
	for _, j := range r.byID {
		switch {
		case j.Status == StatusQueued && !j.RunAt.After(now):
			candidates = append(candidates, j)
		case j.Status == StatusRunning && j.Attempts < j.MaxAttempts && expired(j, staleBefore):
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return Job{}, false, nil
	}
	sort.Slice(candidates, func(a, b int) bool {
		x, y := candidates[a], candidates[b]
		if x.Priority != y.Priority {
			return x.Priority > y.Priority
		}
		if !x.RunAt.Equal(y.RunAt) {
			return x.RunAt.Before(y.RunAt)
		}
		if !x.CreatedAt.Equal(y.CreatedAt) {
			return x.CreatedAt.Before(y.CreatedAt)
		}
		return x.ID < y.ID
	})

	job := candidates[0]
	lockedAt := now
	lockedBy := workerID
	job.Status = StatusRunning
	job.LockedAt = &lockedAt
	job.LockedBy = &lockedBy
	job.Attempts++
	job.UpdatedAt = now
	r.byID[job.ID] = job
	return job, true, nil
}

// Complete marks a leased job done.
func (r *MemoryRepo) Complete(ctx context.Context, jobID, workerID string) error {
	return r.finish(ctx, jobID, workerID, func(j *Job) {
		j.Status = StatusDone
		j.LastError = nil
	})
}

// Reschedule releases a leased job back to the queue at runAt.
func (r *MemoryRepo) Reschedule(ctx context.Context, jobID, workerID string, runAt time.Time, lastError string) error {
	return r.finish(ctx, jobID, workerID, func(j *Job) {
		j.Status = StatusQueued
		j.RunAt = runAt
		j.LastError = &lastError
	})
}

// Fail marks a leased job permanently failed.
func (r *MemoryRepo) Fail(ctx context.Context, jobID, workerID, lastError string) error {
	return r.finish(ctx, jobID, workerID, func(j *Job) {
		j.Status = StatusFailed
		j.LastError = &lastError
	})
}

func (r *MemoryRepo) finish(ctx context.Context, jobID, workerID string, apply func(*Job)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[jobID]
	if !ok || j.Status != StatusRunning || j.LockedBy == nil || *j.LockedBy != workerID {
		return ErrLeaseLost
	}
	apply(&j)
	j.LockedAt = nil
	j.LockedBy = nil
	j.UpdatedAt = r.now()
	r.byID[jobID] = j
	return nil
}

// ExpireStale fails running jobs whose lease expired after the last
// allowed attempt.
func (r *MemoryRepo) ExpireStale(ctx context.Context, now time.Time, leaseTTL time.Duration) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	staleBefore := now.Add(-leaseTTL)
	var out []Job
	for id, j := range r.byID {
		if j.Status != StatusRunning || j.Attempts < j.MaxAttempts || !expired(j, staleBefore) {
			continue
		}
		msg := ErrLeaseExpired.Error()
		j.Status = StatusFailed
		j.LastError = &msg
		j.LockedAt = nil
		j.LockedBy = nil
		j.UpdatedAt = now
		r.byID[id] = j
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func expired(j Job, staleBefore time.Time) bool {
	return j.LockedAt != nil && j.LockedAt.Before(staleBefore)
}

// Get returns a job by id.
func (r *MemoryRepo) Get(ctx context.Context, jobID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return j, nil
}

// GetByDedupeKey returns the job holding key.
func (r *MemoryRepo) GetByDedupeKey(ctx context.Context, key string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKey[key]
	if !ok {
		return Job{}, ErrNotFound
	}
	return r.byID[id], nil
}

// All returns every job ordered by creation time.
func (r *MemoryRepo) All() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Job, 0, len(r.byID))
	for _, j := range r.byID {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.Before(out[b].CreatedAt)
		}
		return out[a].ID < out[b].ID
	})
	return out
}

var (
	_ Repo = (*PGRepo)(nil)
	_ Repo = (*MemoryRepo)(nil)
)
