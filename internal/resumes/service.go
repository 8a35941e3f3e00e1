package resumes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"resume-ranker/internal/cohort"
	"resume-ranker/internal/embeddings"
	"resume-ranker/internal/extract"
	"resume-ranker/internal/jobs"
	"resume-ranker/internal/matching"
	"resume-ranker/internal/pipeline"
	"resume-ranker/internal/quota"
	"resume-ranker/internal/schema"
	"resume-ranker/internal/scoring"
	"resume-ranker/internal/shared/metrics"
	"resume-ranker/internal/shared/storage/object"
	"resume-ranker/internal/shared/telemetry"
)

// Enqueuer schedules embedding work for a resume.
type Enqueuer interface {
	EnqueueResumeEmbedding(ctx context.Context, resumeID string) (jobs.Job, error)
}

// Advisor writes advice bullets for a gap summary.
type Advisor interface {
	Advise(ctx context.Context, groupContext string, gaps cohort.GapSummary) ([]string, error)
}

// Service holds resume business logic. Queue, Store, Embedder, Advisor and
// Quota are optional; operations needing a missing one degrade or fail
// with a descriptive error.
type Service struct {
	Repo     Repo
	Queue    Enqueuer
	Store    object.ObjectStore
	Embedder embeddings.Embedder
	Advisor  Advisor
	Quota    quota.Limiter
	Builder  pipeline.Builder

	ComparePolicy    cohort.Policy
	GapPolicy        cohort.Policy
	ShortlistOptions matching.ShortlistOptions
}

// IngestInput is a resume submitted as text.
type IngestInput struct {
	ResumeID       string `json:"resumeId"`
	Text           string `json:"text"`
	StudentID      string `json:"studentId"`
	Batch          string `json:"batch"`
	Department     string `json:"department"`
	GraduationYear int    `json:"graduationYear"`
}

func (in IngestInput) options() pipeline.Options {
	return pipeline.Options{
		ResumeID:       strings.TrimSpace(in.ResumeID),
		StudentID:      strings.TrimSpace(in.StudentID),
		Batch:          strings.TrimSpace(in.Batch),
		Department:     strings.TrimSpace(in.Department),
		GraduationYear: in.GraduationYear,
	}
}

// FileInput is a resume submitted as an uploaded file. Text is ignored.
type FileInput struct {
	IngestInput
	FileName string
	MimeType string
	Body     io.Reader
}

// Ingest parses text, stores the record and schedules its embedding.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (Record, error) {
	if strings.TrimSpace(in.Text) == "" {
		metrics.IncResumesIngestFailed()
		return Record{}, invalidInput("resume text required")
	}
	rec, err := s.store(ctx, in.Text, in.options(), source{})
	if err != nil {
		metrics.IncResumesIngestFailed()
		return Record{}, err
	}
	metrics.IncResumesIngested()
	return rec, nil
}

// IngestFile saves the upload, extracts its text and ingests it. The
// original stays in the object store so the resume can be reparsed.
func (s *Service) IngestFile(ctx context.Context, in FileInput) (Record, error) {
	if s.Store == nil {
		return Record{}, errors.New("object store not configured")
	}
	if strings.TrimSpace(in.FileName) == "" || in.Body == nil {
		metrics.IncResumesIngestFailed()
		return Record{}, invalidInput("file is required")
	}

	opts := in.options()
	key, size, mime, err := s.Store.Save(ctx, opts.StudentID, in.FileName, in.Body)
	if err != nil {
		metrics.IncResumesIngestFailed()
		if errors.Is(err, object.ErrInvalidFileName) {
			return Record{}, invalidInput(err.Error())
		}
		return Record{}, fmt.Errorf("save upload: %w", err)
	}
	if in.MimeType != "" && in.MimeType != "application/octet-stream" {
		mime = in.MimeType
	}

	res, err := extract.FromObject(ctx, s.Store, key, mime, in.FileName)
	if err != nil {
		metrics.IncResumesIngestFailed()
		if errors.Is(err, extract.ErrTextTooShort) || errors.Is(err, extract.ErrEmptyUpload) {
			return Record{}, invalidInput(err.Error())
		}
		return Record{}, err
	}

	rec, err := s.store(ctx, res.Text, opts, source{Key: key, Name: in.FileName, Mime: mime})
	if err != nil {
		metrics.IncResumesIngestFailed()
		return Record{}, err
	}
	metrics.IncResumesIngested()
	telemetry.Info("resumes.uploaded", map[string]any{
		"resume_id":  rec.ID,
		"format":     string(res.Format),
		"size_bytes": size,
	})
	return rec, nil
}

// Reparse re-extracts the stored upload and rebuilds the schema under the
// same id. The embedding goes back to pending.
func (s *Service) Reparse(ctx context.Context, id string) (Record, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if existing.SourceKey == "" || s.Store == nil {
		return Record{}, ErrNoSource
	}

	res, err := extract.FromObject(ctx, s.Store, existing.SourceKey, existing.SourceMime, existing.SourceName)
	if err != nil {
		if errors.Is(err, extract.ErrTextTooShort) || errors.Is(err, extract.ErrEmptyUpload) {
			return Record{}, invalidInput(err.Error())
		}
		return Record{}, err
	}

	opts := pipeline.Options{
		ResumeID:       existing.ID,
		StudentID:      existing.StudentID,
		Batch:          existing.Batch,
		Department:     existing.Department,
		GraduationYear: existing.Resume.Meta.GraduationYear,
	}
	src := source{Key: existing.SourceKey, Name: existing.SourceName, Mime: existing.SourceMime}
	return s.store(ctx, res.Text, opts, src)
}

type source struct {
	Key, Name, Mime string
}

func (s *Service) store(ctx context.Context, text string, opts pipeline.Options, src source) (Record, error) {
	resume := s.Builder.Build(text, opts)
	if inv, ok := schema.CheckResume(resume).(schema.Invalid); ok {
		return Record{}, invalidInput(inv.Reason)
	}

	rec, err := s.Repo.Save(ctx, Record{
		ID:         resume.Meta.ResumeID,
		StudentID:  resume.Meta.StudentID,
		Batch:      resume.Meta.Batch,
		Department: resume.Meta.Department,
		Resume:     resume,
		Score:      scoring.Compute(resume).Total,
		SourceKey:  src.Key,
		SourceName: src.Name,
		SourceMime: src.Mime,
	})
	if err != nil {
		return Record{}, err
	}

	if s.Queue != nil {
		// A failed enqueue leaves the resume pending; backfill picks it up.
		if _, err := s.Queue.EnqueueResumeEmbedding(ctx, rec.ID); err != nil {
			telemetry.Error("resumes.enqueue_failed", map[string]any{
				"resume_id": rec.ID,
				"error":     err.Error(),
			})
		}
	}

	telemetry.Info("resumes.parsed", map[string]any{
		"resume_id":  rec.ID,
		"score":      rec.Score,
		"sections":   len(resume.RawSections),
		"confidence": resume.Meta.Confidence,
	})
	return rec, nil
}

// Get returns a stored resume.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, invalidInput("resumeId required")
	}
	return s.Repo.Get(ctx, id)
}

// Score recomputes the rubric score of a stored resume.
func (s *Service) Score(ctx context.Context, id string) (scoring.Result, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return scoring.Result{}, err
	}
	return scoring.Compute(rec.Resume), nil
}

// Compare ranks a stored resume within its batch and department.
func (s *Service) Compare(ctx context.Context, id string) (cohort.Comparison, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return cohort.Comparison{}, err
	}
	members, err := s.Repo.List(ctx, CohortFilter(rec))
	if err != nil {
		return cohort.Comparison{}, err
	}
	return cohort.Compare(rec.Resume, resumesOf(members), s.comparePolicy()), nil
}

func (s *Service) comparePolicy() cohort.Policy {
	if s.ComparePolicy == (cohort.Policy{}) {
		return cohort.ComparatorPolicy
	}
	return s.ComparePolicy
}

func (s *Service) gapPolicy() cohort.Policy {
	if s.GapPolicy == (cohort.Policy{}) {
		return cohort.GapPolicy
	}
	return s.GapPolicy
}

func resumesOf(recs []Record) []schema.Resume {
	out := make([]schema.Resume, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Resume)
	}
	return out
}

func (s *Service) embedQuery(ctx context.Context, text string) ([]float64, error) {
	if s.Embedder == nil {
		return nil, ErrEmbeddingsUnavailable
	}
	vec, err := s.Embedder.Embed(ctx, text)
	if err != nil {
		telemetry.Warn("resumes.embed_query_failed", map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingsUnavailable, err)
	}
	return vec, nil
}
