package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/bootstrap"
	"resume-ranker/internal/pipeline"
	"resume-ranker/internal/resumes"
	"resume-ranker/internal/shared/config"
	"resume-ranker/internal/shared/storage/db"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64{0.6, 0.8}, nil
}

func TestRunBackfillsAndEmbedsPendingResumes(t *testing.T) {
	cfg := config.Defaults()
	cfg.LocalStoreDir = t.TempDir()
	cfg.Worker.PollInterval = 10 * time.Millisecond
	cfg.Worker.Concurrency = 1

	app, err := bootstrap.Build(context.Background(), cfg, db.DefaultWorkerOptions(1))
	require.NoError(t, err)
	t.Cleanup(app.Close)
	app.Embedder = stubEmbedder{}

	// Saved straight to the repo, so no job exists until backfill runs.
	resume := pipeline.Build("Skills\nGo, SQL\n\nProjects\nBuilt a job queue in Go backed by Postgres.", pipeline.Options{
		ResumeID:   "r-backfill",
		Batch:      "2026",
		Department: "CSE",
	})
	_, err = app.Resumes.Save(context.Background(), resumes.Record{
		ID:         "r-backfill",
		Batch:      "2026",
		Department: "CSE",
		Resume:     resume,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, app) }()

	require.Eventually(t, func() bool {
		rec, err := app.Resumes.Get(context.Background(), "r-backfill")
		return err == nil && rec.EmbeddingStatus == resumes.EmbeddingDone
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	rec, err := app.Resumes.Get(context.Background(), "r-backfill")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.6, 0.8}, rec.Embedding)
}
