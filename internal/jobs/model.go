// Package jobs is the durable, lease-based job queue backing resume
// embedding.
package jobs

import (
	"encoding/json"
	"time"
)

// TypeResumeEmbedding computes and stores the vector for one resume.
const TypeResumeEmbedding = "resume_embedding"

const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

const (
	DefaultMaxAttempts = 5
	DefaultLeaseTTL    = 10 * time.Minute
)

// Job is one row of the jobs table.
type Job struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	DedupeKey   string          `json:"dedupeKey"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Priority    int             `json:"priority"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	RunAt       time.Time       `json:"runAt"`
	LockedAt    *time.Time      `json:"lockedAt,omitempty"`
	LockedBy    *string         `json:"lockedBy,omitempty"`
	LastError   *string         `json:"lastError,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Live reports whether the job is still waiting or being worked.
func (j Job) Live() bool {
	return j.Status == StatusQueued || j.Status == StatusRunning
}

// Payload is the body of a resume_embedding job.
type Payload struct {
	ResumeID string `json:"resumeId"`
}

// DedupeKey is the uniqueness key for a job of the given type and subject.
func DedupeKey(jobType, subject string) string {
	return jobType + ":" + subject
}

// DecodePayload reads a resume_embedding payload. A missing resume id is
// reported as Unrecoverable.
func DecodePayload(raw json.RawMessage) (Payload, error) {
	var p Payload
	if len(raw) == 0 {
		return Payload{}, Unrecoverable(ErrMissingResumeID)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, Unrecoverable(err)
	}
	if p.ResumeID == "" {
		return Payload{}, Unrecoverable(ErrMissingResumeID)
	}
	return p, nil
}
