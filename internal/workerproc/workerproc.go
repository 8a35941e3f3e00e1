// Package workerproc runs resume embedding jobs.
package workerproc

import (
	"context"
	"errors"
	"fmt"

	"resume-ranker/internal/embeddings"
	"resume-ranker/internal/jobs"
	"resume-ranker/internal/resumes"
	"resume-ranker/internal/shared/telemetry"
)

const maxStoredError = 1000

// ResumeStore is the slice of the resume repository the processor needs.
type ResumeStore interface {
	Get(ctx context.Context, id string) (resumes.Record, error)
	SetEmbedding(ctx context.Context, id string, vec []float64, model string) error
	SetEmbeddingStatus(ctx context.Context, id string, status resumes.EmbeddingStatus, lastError string) error
}

// ErrProcess wraps a handler failure with the resume it concerned.
type ErrProcess struct {
	ResumeID string
	Err      error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process resume " + e.ResumeID
	}
	return "process resume " + e.ResumeID + ": " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Processor computes and stores resume embeddings. It is registered as the
// handler for jobs.TypeResumeEmbedding and as the worker's failure hook.
type Processor struct {
	Resumes  ResumeStore
	Embedder embeddings.Embedder
	Model    string
}

// NewProcessor constructs a Processor. An empty model name takes the
// embedding service default.
func NewProcessor(store ResumeStore, embedder embeddings.Embedder, model string) *Processor {
	if model == "" {
		model = embeddings.DefaultModel
	}
	return &Processor{Resumes: store, Embedder: embedder, Model: model}
}

// Handle embeds the resume named by the job payload.
func (p *Processor) Handle(ctx context.Context, job jobs.Job) error {
	payload, err := jobs.DecodePayload(job.Payload)
	if err != nil {
		return err
	}

	rec, err := p.Resumes.Get(ctx, payload.ResumeID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) || errors.Is(err, resumes.ErrInvalidSchema) {
			return jobs.Unrecoverable(ErrProcess{ResumeID: payload.ResumeID, Err: err})
		}
		return ErrProcess{ResumeID: payload.ResumeID, Err: err}
	}

	text := embeddings.BuildText(rec.Resume)
	vec, err := p.Embedder.Embed(ctx, text)
	if err != nil {
		wrapped := ErrProcess{ResumeID: rec.ID, Err: err}
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return wrapped
		case embeddings.IsTransient(err):
			return jobs.Transient(wrapped)
		case errors.Is(err, embeddings.ErrMalformed):
			return jobs.Unrecoverable(wrapped)
		default:
			return wrapped
		}
	}

	if err := p.Resumes.SetEmbedding(ctx, rec.ID, vec, p.Model); err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			return jobs.Unrecoverable(ErrProcess{ResumeID: rec.ID, Err: err})
		}
		return ErrProcess{ResumeID: rec.ID, Err: fmt.Errorf("store embedding: %w", err)}
	}

	telemetry.Info("embedding.stored", map[string]any{
		"resume_id": rec.ID,
		"job_id":    job.ID,
		"dims":      len(vec),
		"model":     p.Model,
	})
	return nil
}

// OnFailure records a job's terminal failure on the resume. An outage keeps
// the resume pending so a later backfill retries it.
func (p *Processor) OnFailure(ctx context.Context, job jobs.Job, cause error) {
	payload, err := jobs.DecodePayload(job.Payload)
	if err != nil {
		return
	}

	status := resumes.EmbeddingFailed
	if jobs.IsTransient(cause) || embeddings.IsTransient(cause) {
		status = resumes.EmbeddingPending
	}
	msg := truncate(cause.Error(), maxStoredError)

	if err := p.Resumes.SetEmbeddingStatus(ctx, payload.ResumeID, status, msg); err != nil && !errors.Is(err, resumes.ErrNotFound) {
		telemetry.Error("embedding.status_update_failed", map[string]any{
			"resume_id": payload.ResumeID,
			"job_id":    job.ID,
			"error":     err.Error(),
		})
		return
	}
	telemetry.Warn("embedding.failed", map[string]any{
		"resume_id": payload.ResumeID,
		"job_id":    job.ID,
		"status":    string(status),
		"error":     msg,
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	_ jobs.Handler        = (*Processor)(nil)
	_ jobs.FailureHandler = (*Processor)(nil)
	_ ResumeStore         = (resumes.Repo)(nil)
)
