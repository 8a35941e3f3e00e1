package resumes

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("resume not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidSchema         = errors.New("invalid schema in db")
	ErrNoSource              = errors.New("resume has no stored upload")
	ErrEmbeddingsUnavailable = errors.New("embeddings server unavailable")
	ErrInvalidMode           = errors.New("mode must be score or jd")
)

// InvalidSchemaError reports a stored document that failed validation.
type InvalidSchemaError struct {
	ResumeID string
	Reason   string
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("resume %s: %s", e.ResumeID, e.Reason)
}

func (e *InvalidSchemaError) Is(target error) bool { return target == ErrInvalidSchema }

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
