// Package pipeline turns raw resume text into a versioned schema document.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"resume-ranker/internal/extraction"
	"resume-ranker/internal/schema"
	"resume-ranker/internal/sections"
)

// Options carries identity metadata supplied by the caller. A blank ResumeID
// gets a fresh UUID.
type Options struct {
	ResumeID       string
	StudentID      string
	Batch          string
	Department     string
	GraduationYear int
}

// Builder builds resume schemas. Now and NewID default to the wall clock and
// uuid.NewString.
type Builder struct {
	Now   func() time.Time
	NewID func() string
}

// Build builds a schema with the default clock and id generator.
func Build(text string, opts Options) schema.Resume {
	return Builder{}.Build(text, opts)
}

func (b Builder) Build(text string, opts Options) schema.Resume {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	newID := uuid.NewString
	if b.NewID != nil {
		newID = b.NewID
	}

	raw := sections.Segment(text)

	id := opts.ResumeID
	if id == "" {
		id = newID()
	}

	return schema.Resume{
		Meta: schema.Meta{
			ResumeID:       id,
			StudentID:      opts.StudentID,
			Batch:          opts.Batch,
			Department:     opts.Department,
			GraduationYear: opts.GraduationYear,
			ParsedAt:       now().UTC(),
			SchemaVersion:  schema.Version,
			Confidence:     meanConfidence(raw),
		},
		Skills:         extraction.Skills(raw),
		Projects:       extraction.Projects(raw),
		Experience:     extraction.Experience(raw),
		Education:      extraction.Education(raw),
		Certifications: extraction.Certifications(raw),
		Achievements:   extraction.Achievements(raw),
		RawSections:    raw,
	}
}

func meanConfidence(raw []schema.RawSection) float64 {
	if len(raw) == 0 {
		return 0
	}
	var sum float64
	for _, s := range raw {
		sum += s.Confidence
	}
	return sum / float64(len(raw))
}
