package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"resume-ranker/internal/shared/metrics"
	"resume-ranker/internal/shared/telemetry"
)

// Notifier is told about freshly enqueued jobs so idle workers can wake
// early. The database stays the source of truth.
type Notifier interface {
	Notify(ctx context.Context, job Job) error
}

// Queue enqueues jobs through a Repo.
type Queue struct {
	Repo        Repo
	Notifier    Notifier
	MaxAttempts int
	Now         func() time.Time
	NewID       func() string
}

// NewQueue builds a Queue with the default clock, ids and attempt limit.
func NewQueue(repo Repo, notifier Notifier) *Queue {
	return &Queue{Repo: repo, Notifier: notifier}
}

// EnqueueResumeEmbedding schedules (or reschedules) embedding for one
// resume. Enqueuing the same resume twice leaves a single job.
func (q *Queue) EnqueueResumeEmbedding(ctx context.Context, resumeID string) (Job, error) {
	if resumeID == "" {
		return Job{}, ErrMissingResumeID
	}
	payload, err := json.Marshal(Payload{ResumeID: resumeID})
	if err != nil {
		return Job{}, err
	}
	return q.Enqueue(ctx, TypeResumeEmbedding, DedupeKey(TypeResumeEmbedding, resumeID), payload)
}

// Enqueue upserts a job of jobType keyed by dedupeKey.
func (q *Queue) Enqueue(ctx context.Context, jobType, dedupeKey string, payload json.RawMessage) (Job, error) {
	now := q.now()
	job, err := q.Repo.Upsert(ctx, Job{
		ID:          q.newID(),
		Type:        jobType,
		DedupeKey:   dedupeKey,
		Payload:     payload,
		Status:      StatusQueued,
		MaxAttempts: q.maxAttempts(),
		RunAt:       now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Job{}, err
	}
	metrics.IncJobsEnqueued()
	telemetry.Info("jobs.enqueued", map[string]any{
		"job_id":     job.ID,
		"job_type":   job.Type,
		"dedupe_key": job.DedupeKey,
	})

	if q.Notifier != nil {
		if err := q.Notifier.Notify(ctx, job); err != nil {
			telemetry.Warn("jobs.notify_failed", map[string]any{
				"job_id": job.ID,
				"error":  err.Error(),
			})
		}
	}
	return job, nil
}

func (q *Queue) now() time.Time {
	if q.Now != nil {
		return q.Now().UTC()
	}
	return time.Now().UTC()
}

func (q *Queue) newID() string {
	if q.NewID != nil {
		return q.NewID()
	}
	return uuid.NewString()
}

func (q *Queue) maxAttempts() int {
	if q.MaxAttempts > 0 {
		return q.MaxAttempts
	}
	return DefaultMaxAttempts
}
