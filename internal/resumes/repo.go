package resumes

import (
	"context"
	"encoding/json"

	"resume-ranker/internal/schema"
)

// Repo persists resume records. Every schema crossing this boundary goes
// through schema.Check.
type Repo interface {
	// Save inserts or replaces a record by id. The embedding is reset to
	// pending because the schema it was built from may have changed.
	Save(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	// List returns matching records oldest first, skipping rows whose
	// stored schema no longer validates.
	List(ctx context.Context, f Filter) ([]Record, error)
	PendingEmbeddingIDs(ctx context.Context) ([]string, error)
	SetEmbedding(ctx context.Context, id string, vec []float64, model string) error
	SetEmbeddingStatus(ctx context.Context, id string, status EmbeddingStatus, lastError string) error
}

// encodeResume validates r and returns the JSON stored for it.
func encodeResume(r schema.Resume) ([]byte, schema.Resume, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, schema.Resume{}, err
	}
	return decodeResume(r.Meta.ResumeID, raw)
}

func decodeResume(id string, raw []byte) ([]byte, schema.Resume, error) {
	switch v := schema.Check(raw).(type) {
	case schema.Valid:
		return raw, v.Resume, nil
	case schema.Invalid:
		return nil, schema.Resume{}, &InvalidSchemaError{ResumeID: id, Reason: v.Reason}
	default:
		return nil, schema.Resume{}, &InvalidSchemaError{ResumeID: id, Reason: "unknown validation result"}
	}
}
