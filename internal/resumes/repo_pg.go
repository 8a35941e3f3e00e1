package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"resume-ranker/internal/schema"
	"resume-ranker/internal/shared/telemetry"
)

// PGRepo implements Repo using Postgres. Schemas and embeddings are stored
// as jsonb.
type PGRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

const recordColumns = `id, student_id, batch, department, parsed, score, source_key, source_name, source_mime,
       embedding, embedding_model, embedding_status, embedding_error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var studentID, batch, department sql.NullString
	var sourceKey, sourceName, sourceMime sql.NullString
	var embeddingModel, embeddingError sql.NullString
	var parsed, embedding []byte
	var status string
	if err := row.Scan(
		&rec.ID,
		&studentID,
		&batch,
		&department,
		&parsed,
		&rec.Score,
		&sourceKey,
		&sourceName,
		&sourceMime,
		&embedding,
		&embeddingModel,
		&status,
		&embeddingError,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	rec.StudentID = studentID.String
	rec.Batch = batch.String
	rec.Department = department.String
	rec.SourceKey = sourceKey.String
	rec.SourceName = sourceName.String
	rec.SourceMime = sourceMime.String
	rec.EmbeddingModel = embeddingModel.String
	rec.EmbeddingStatus = EmbeddingStatus(status)
	if embeddingError.Valid {
		s := embeddingError.String
		rec.EmbeddingError = &s
	}
	if len(embedding) > 0 {
		if vec, ok := schema.DecodeEmbedding(embedding); ok {
			rec.Embedding = vec
		}
	}

	_, resume, err := decodeResume(rec.ID, parsed)
	if err != nil {
		return rec, err
	}
	rec.Resume = resume
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Save inserts rec or replaces the row with the same id.
func (r *PGRepo) Save(ctx context.Context, rec Record) (Record, error) {
	const query = `
INSERT INTO resumes (
    id, student_id, batch, department, parsed, score,
    source_key, source_name, source_mime,
    embedding_status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, 'pending', $10, $10)
ON CONFLICT (id) DO UPDATE
SET student_id = EXCLUDED.student_id,
    batch = EXCLUDED.batch,
    department = EXCLUDED.department,
    parsed = EXCLUDED.parsed,
    score = EXCLUDED.score,
    source_key = COALESCE(EXCLUDED.source_key, resumes.source_key),
    source_name = COALESCE(EXCLUDED.source_name, resumes.source_name),
    source_mime = COALESCE(EXCLUDED.source_mime, resumes.source_mime),
    embedding = NULL,
    embedding_model = NULL,
    embedding_status = 'pending',
    embedding_error = NULL,
    updated_at = EXCLUDED.updated_at
RETURNING ` + recordColumns

	raw, _, err := encodeResume(rec.Resume)
	if err != nil {
		return Record{}, err
	}
	row := r.DB.QueryRowContext(ctx, query,
		rec.ID,
		nullString(rec.StudentID),
		nullString(rec.Batch),
		nullString(rec.Department),
		string(raw),
		rec.Score,
		nullString(rec.SourceKey),
		nullString(rec.SourceName),
		nullString(rec.SourceMime),
		r.now(),
	)
	return scanRecord(row)
}

// Get returns the record with id.
func (r *PGRepo) Get(ctx context.Context, id string) (Record, error) {
	const query = `SELECT ` + recordColumns + ` FROM resumes WHERE id = $1`
	return scanRecord(r.DB.QueryRowContext(ctx, query, id))
}

// List returns records matching f, oldest first.
func (r *PGRepo) List(ctx context.Context, f Filter) ([]Record, error) {
	const query = `
SELECT ` + recordColumns + `
FROM resumes
WHERE ($1 = '' OR batch = $1)
  AND ($2 = '' OR department = $2)
  AND ($3 = '' OR embedding_status = $3)
  AND ($4 = '' OR id <> $4)
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, f.Batch, f.Department, string(f.EmbeddingStatus), f.ExcludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			var invalid *InvalidSchemaError
			if errors.As(err, &invalid) {
				telemetry.Warn("resumes.invalid_schema_skipped", map[string]any{
					"resume_id": invalid.ResumeID,
					"reason":    invalid.Reason,
				})
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PendingEmbeddingIDs lists resumes still waiting for an embedding.
func (r *PGRepo) PendingEmbeddingIDs(ctx context.Context) ([]string, error) {
	const query = `
SELECT id
FROM resumes
WHERE embedding_status = 'pending'
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetEmbedding stores vec and marks the embedding done.
func (r *PGRepo) SetEmbedding(ctx context.Context, id string, vec []float64, model string) error {
	const query = `
UPDATE resumes
SET embedding = $2::jsonb,
    embedding_model = $3,
    embedding_status = 'done',
    embedding_error = NULL,
    updated_at = $4
WHERE id = $1`

	if !schema.ValidEmbedding(vec) {
		return invalidInput("embedding must be a non-empty finite vector")
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return r.execOne(ctx, query, id, string(raw), model, r.now())
}

// SetEmbeddingStatus records a status change without touching the vector.
func (r *PGRepo) SetEmbeddingStatus(ctx context.Context, id string, status EmbeddingStatus, lastError string) error {
	const query = `
UPDATE resumes
SET embedding_status = $2,
    embedding_error = $3,
    updated_at = $4
WHERE id = $1`

	return r.execOne(ctx, query, id, string(status), nullString(lastError), r.now())
}

func (r *PGRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
