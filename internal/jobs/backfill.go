package jobs

import (
	"context"
	"errors"
	"fmt"

	"resume-ranker/internal/shared/telemetry"
)

// PendingSource lists resumes whose embedding has not been computed.
type PendingSource interface {
	PendingEmbeddingIDs(ctx context.Context) ([]string, error)
}

// Backfill enqueues embedding jobs for pending resumes that have no live
// job. It returns how many jobs were enqueued.
func (q *Queue) Backfill(ctx context.Context, src PendingSource) (int, error) {
	ids, err := src.PendingEmbeddingIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending embeddings: %w", err)
	}

	enqueued := 0
	for _, id := range ids {
		existing, err := q.Repo.GetByDedupeKey(ctx, DedupeKey(TypeResumeEmbedding, id))
		switch {
		case err == nil && existing.Live():
			continue
		case err != nil && !errors.Is(err, ErrNotFound):
			return enqueued, err
		}
		if _, err := q.EnqueueResumeEmbedding(ctx, id); err != nil {
			return enqueued, err
		}
		enqueued++
	}

	telemetry.Info("jobs.backfill", map[string]any{
		"pending":  len(ids),
		"enqueued": enqueued,
	})
	return enqueued, nil
}
