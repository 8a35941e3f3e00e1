package resumes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/cohort"
	"resume-ranker/internal/jobs"
	"resume-ranker/internal/quota"
	"resume-ranker/internal/shared/storage/object/local"
)

const (
	strongText = "Skills\nPython, Docker, React, AWS\n\nProjects\nBuilt a React dashboard using Python and Docker, deployed to AWS for students."
	weakText   = "Skills\nPython\n\nSummary\nMotivated learner looking for backend roles."
)

type fakeEmbedder struct {
	vec   []float64
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float64, error) {
	f.calls++
	return f.vec, f.err
}

type fakeAdvisor struct {
	bullets []string
	err     error
	calls   int
}

func (f *fakeAdvisor) Advise(context.Context, string, cohort.GapSummary) ([]string, error) {
	f.calls++
	return f.bullets, f.err
}

func newTestService(t *testing.T) (*Service, *MemoryRepo, *jobs.MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	jobRepo := jobs.NewMemoryRepo()
	svc := &Service{
		Repo:  repo,
		Queue: jobs.NewQueue(jobRepo, nil),
		Store: local.New(t.TempDir()),
	}
	return svc, repo, jobRepo
}

func ingest(t *testing.T, svc *Service, id, text string) Record {
	t.Helper()
	rec, err := svc.Ingest(context.Background(), IngestInput{
		ResumeID:   id,
		Text:       text,
		StudentID:  "stu-" + id,
		Batch:      "2026",
		Department: "CSE",
	})
	require.NoError(t, err)
	return rec
}

func TestIngestStoresAndEnqueues(t *testing.T) {
	svc, _, jobRepo := newTestService(t)

	rec := ingest(t, svc, "r1", strongText)

	assert.Equal(t, "r1", rec.ID)
	assert.Equal(t, EmbeddingPending, rec.EmbeddingStatus)
	assert.Positive(t, rec.Score)
	assert.Equal(t, "2026", rec.Resume.Meta.Batch)

	job, err := jobRepo.GetByDedupeKey(context.Background(), jobs.DedupeKey(jobs.TypeResumeEmbedding, "r1"))
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusQueued, job.Status)
}

func TestIngestRejectsBlankText(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Ingest(context.Background(), IngestInput{Text: "  \n "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIngestFileThenReparse(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.IngestFile(ctx, FileInput{
		IngestInput: IngestInput{ResumeID: "up1", StudentID: "s1", Batch: "2026", Department: "CSE"},
		FileName:    "resume.txt",
		MimeType:    "text/plain",
		Body:        strings.NewReader(strongText),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.SourceKey)
	assert.Equal(t, "resume.txt", rec.SourceName)

	require.NoError(t, repo.SetEmbedding(ctx, "up1", []float64{1, 0}, "m"))

	again, err := svc.Reparse(ctx, "up1")
	require.NoError(t, err)
	assert.Equal(t, "up1", again.ID)
	assert.Equal(t, rec.SourceKey, again.SourceKey)
	assert.Equal(t, EmbeddingPending, again.EmbeddingStatus)
	assert.Equal(t, rec.Resume.SkillNames(), again.Resume.SkillNames())
}

func TestIngestFileRejectsShortText(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.IngestFile(context.Background(), FileInput{
		FileName: "tiny.txt",
		MimeType: "text/plain",
		Body:     strings.NewReader("Skills\nGo"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReparseWithoutUpload(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "r1", strongText)

	_, err := svc.Reparse(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = svc.Reparse(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompareRanksWithinCohort(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "strong", strongText)
	ingest(t, svc, "weak", weakText)

	cmp, err := svc.Compare(context.Background(), "weak")
	require.NoError(t, err)
	assert.Equal(t, 2, cmp.Total)
	assert.Equal(t, 2, cmp.Rank)
	assert.Equal(t, 0, cmp.Percentile)
}

func TestMissingScoreMode(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "weak", weakText)
	ingest(t, svc, "p1", strongText)
	ingest(t, svc, "p2", strongText)

	res, err := svc.Missing(context.Background(), "weak", MissingRequest{})
	require.NoError(t, err)

	assert.Equal(t, Group{Mode: ModeScore, Size: 2, Batch: "2026", Department: "CSE"}, res.Group)
	assert.Contains(t, res.Gaps.MissingSkills, "Docker")
	assert.Equal(t, AdviceSourceFallback, res.AdviceSource)
	assert.Equal(t, cohort.FallbackAdvice(res.Gaps), res.AdviceBullets)
}

func TestMissingWithoutPeers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "alone", weakText)

	res, err := svc.Missing(context.Background(), "alone", MissingRequest{Mode: "score"})
	require.NoError(t, err)

	assert.Zero(t, res.Group.Size)
	assert.Equal(t, []string{cohort.NoPeersAdvice}, res.AdviceBullets)
	assert.Empty(t, res.Gaps.MissingSkills)
	assert.Nil(t, res.Gaps.ExperienceGap)
}

func TestMissingRejectsUnknownMode(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "r1", weakText)

	_, err := svc.Missing(context.Background(), "r1", MissingRequest{Mode: "vibes"})
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestMissingJDModeWithoutTextFallsBackToScore(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "r1", weakText)

	res, err := svc.Missing(context.Background(), "r1", MissingRequest{Mode: ModeJD})
	require.NoError(t, err)
	assert.Equal(t, ModeScore, res.Group.Mode)
}

func TestMissingJDModeRanksBySimilarity(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	ingest(t, svc, "weak", weakText)
	ingest(t, svc, "close", strongText)
	ingest(t, svc, "far", weakText)
	require.NoError(t, repo.SetEmbedding(ctx, "close", []float64{1, 0}, "m"))
	require.NoError(t, repo.SetEmbedding(ctx, "far", []float64{0, 1}, "m"))
	svc.Embedder = &fakeEmbedder{vec: []float64{1, 0.1}}

	res, err := svc.Missing(ctx, "weak", MissingRequest{Mode: ModeJD, JDText: "Docker and React", TopN: 1})
	require.NoError(t, err)

	assert.Equal(t, ModeJD, res.Group.Mode)
	assert.Equal(t, 1, res.Group.Size)
	assert.Contains(t, res.Gaps.MissingSkills, "Docker")
}

func TestMissingJDModeEmbeddingOutage(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "r1", weakText)
	svc.Embedder = &fakeEmbedder{err: errors.New("connection refused")}

	_, err := svc.Missing(context.Background(), "r1", MissingRequest{Mode: ModeJD, JDText: "Go developer"})
	assert.ErrorIs(t, err, ErrEmbeddingsUnavailable)
}

func TestMissingAdviceRespectsQuota(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "weak", weakText)
	ingest(t, svc, "p1", strongText)
	advisor := &fakeAdvisor{bullets: []string{"Learn Docker."}}
	svc.Advisor = advisor
	svc.Quota = quota.NewMemoryLimiter(1)

	first, err := svc.Missing(context.Background(), "weak", MissingRequest{})
	require.NoError(t, err)
	assert.Equal(t, AdviceSourceLLM, first.AdviceSource)
	assert.Equal(t, []string{"Learn Docker."}, first.AdviceBullets)
	require.NotNil(t, first.Quota)
	assert.Equal(t, 1, first.Quota.Used)

	second, err := svc.Missing(context.Background(), "weak", MissingRequest{})
	require.NoError(t, err)
	assert.Equal(t, AdviceSourceFallback, second.AdviceSource)
	require.NotNil(t, second.Quota)
	assert.False(t, second.Quota.Allowed)
	assert.Equal(t, 1, advisor.calls)
}

func TestMissingAdviceFailureFallsBack(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "weak", weakText)
	ingest(t, svc, "p1", strongText)
	svc.Advisor = &fakeAdvisor{err: errors.New("boom")}

	res, err := svc.Missing(context.Background(), "weak", MissingRequest{})
	require.NoError(t, err)
	assert.Equal(t, AdviceSourceFallback, res.AdviceSource)
	assert.NotEmpty(t, res.AdviceBullets)
}

func TestShortlistSkipsEmbeddingWhenNothingIsEmbedded(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "r1", strongText)
	emb := &fakeEmbedder{vec: []float64{1, 0}}
	svc.Embedder = emb

	res, err := svc.Shortlist(context.Background(), ShortlistRequest{JDText: "Python developer"})
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.NotNil(t, res)
	assert.Zero(t, emb.calls)
}

func TestShortlistRanksEmbeddedResumes(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	ingest(t, svc, "a", strongText)
	ingest(t, svc, "b", weakText)
	require.NoError(t, repo.SetEmbedding(ctx, "a", []float64{1, 0}, "m"))
	require.NoError(t, repo.SetEmbedding(ctx, "b", []float64{0.2, 1}, "m"))
	svc.Embedder = &fakeEmbedder{vec: []float64{1, 0}}

	res, err := svc.Shortlist(ctx, ShortlistRequest{JDText: "Python Docker React developer"})
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "a", res[0].ResumeID)
	assert.InDelta(t, 1.0, res[0].Similarity, 1e-9)
}

func TestShortlistRequiresJD(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Shortlist(context.Background(), ShortlistRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMatchJD(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "a", strongText)
	ingest(t, svc, "b", weakText)

	res, err := svc.MatchJD(context.Background(), MatchRequest{JDText: "Need Python, Docker and React", TopN: 5})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a", res[0].ResumeID)
	assert.Greater(t, res[0].Score, res[1].Score)
}

func TestCohortReport(t *testing.T) {
	svc, _, _ := newTestService(t)
	ingest(t, svc, "a", weakText)
	ingest(t, svc, "b", strongText)

	rows, err := svc.CohortReport(context.Background(), "2026", "CSE")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].ResumeID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "pending", rows[0].Embedding)
}
