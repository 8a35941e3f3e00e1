package resumes

import (
	"time"

	"resume-ranker/internal/schema"
)

// EmbeddingStatus tracks the embedding lifecycle of a stored resume.
type EmbeddingStatus string

const (
	EmbeddingPending EmbeddingStatus = "pending"
	EmbeddingDone    EmbeddingStatus = "done"
	EmbeddingFailed  EmbeddingStatus = "failed"
)

// Record is a stored resume: the parsed schema plus the upload it came from
// and its embedding state. Score is the rubric total at parse time.
type Record struct {
	ID              string
	StudentID       string
	Batch           string
	Department      string
	Resume          schema.Resume
	Score           int
	SourceKey       string
	SourceName      string
	SourceMime      string
	Embedding       []float64
	EmbeddingModel  string
	EmbeddingStatus EmbeddingStatus
	EmbeddingError  *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Batch           string
	Department      string
	EmbeddingStatus EmbeddingStatus
	ExcludeID       string
}

func (f Filter) matches(r Record) bool {
	if f.Batch != "" && r.Batch != f.Batch {
		return false
	}
	if f.Department != "" && r.Department != f.Department {
		return false
	}
	if f.EmbeddingStatus != "" && r.EmbeddingStatus != f.EmbeddingStatus {
		return false
	}
	if f.ExcludeID != "" && r.ID == f.ExcludeID {
		return false
	}
	return true
}

// CohortFilter selects the resumes sharing r's batch and department.
func CohortFilter(r Record) Filter {
	return Filter{Batch: r.Batch, Department: r.Department}
}
