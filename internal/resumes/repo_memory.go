package resumes

import (
	"context"
	"sort"
	"sync"
	"time"

	"resume-ranker/internal/schema"
)

// MemoryRepo is an in-memory Repo for development and tests.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		records: make(map[string]Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) Save(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	_, resume, err := encodeResume(rec.Resume)
	if err != nil {
		return Record{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	rec.Resume = resume
	rec.Embedding = nil
	rec.EmbeddingModel = ""
	rec.EmbeddingStatus = EmbeddingPending
	rec.EmbeddingError = nil
	rec.UpdatedAt = now
	if existing, ok := r.records[rec.ID]; ok {
		rec.CreatedAt = existing.CreatedAt
		if rec.SourceKey == "" {
			rec.SourceKey = existing.SourceKey
			rec.SourceName = existing.SourceName
			rec.SourceMime = existing.SourceMime
		}
	} else {
		rec.CreatedAt = now
	}
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		if f.matches(rec) {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (r *MemoryRepo) PendingEmbeddingIDs(ctx context.Context) ([]string, error) {
	recs, err := r.List(ctx, Filter{EmbeddingStatus: EmbeddingPending})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

func (r *MemoryRepo) SetEmbedding(ctx context.Context, id string, vec []float64, model string) error {
	if !schema.ValidEmbedding(vec) {
		return invalidInput("embedding must be a non-empty finite vector")
	}
	return r.update(ctx, id, func(rec *Record) {
		rec.Embedding = append([]float64(nil), vec...)
		rec.EmbeddingModel = model
		rec.EmbeddingStatus = EmbeddingDone
		rec.EmbeddingError = nil
	})
}

func (r *MemoryRepo) SetEmbeddingStatus(ctx context.Context, id string, status EmbeddingStatus, lastError string) error {
	return r.update(ctx, id, func(rec *Record) {
		rec.EmbeddingStatus = status
		rec.EmbeddingError = nil
		if lastError != "" {
			msg := lastError
			rec.EmbeddingError = &msg
		}
	})
}

func (r *MemoryRepo) update(ctx context.Context, id string, apply func(*Record)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	apply(&rec)
	rec.UpdatedAt = r.now()
	r.records[id] = rec
	return nil
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}

var (
	_ Repo = (*PGRepo)(nil)
	_ Repo = (*MemoryRepo)(nil)
)
