package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/jobs"
	"resume-ranker/internal/shared/config"
	"resume-ranker/internal/shared/storage/db"
)

func devConfig(t *testing.T) config.Config {
	cfg := config.Defaults()
	cfg.LocalStoreDir = t.TempDir()
	return cfg
}

func TestBuildFallsBackToMemoryInDev(t *testing.T) {
	app, err := Build(context.Background(), devConfig(t), db.DefaultServerOptions())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	assert.True(t, app.InMemory)
	assert.Nil(t, app.DB)
	assert.Nil(t, app.Service.Advisor)
	assert.Nil(t, app.Service.Quota)

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	_, err := Build(context.Background(), cfg, db.DefaultServerOptions())
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestBuildWiresAdvisorAndMemoryQuota(t *testing.T) {
	cfg := devConfig(t)
	cfg.OpenAIAPIKey = "sk-test"
	cfg.LLMModel = "gpt-4o-mini"
	app, err := Build(context.Background(), cfg, db.DefaultServerOptions())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	assert.NotNil(t, app.Service.Advisor)
	assert.NotNil(t, app.Service.Quota)
}

func TestS3StoreNeedsBucket(t *testing.T) {
	cfg := devConfig(t)
	cfg.ObjectStoreType = "s3"
	_, err := Build(context.Background(), cfg, db.DefaultServerOptions())
	assert.ErrorContains(t, err, "S3_BUCKET")
}

func TestIngestThenWorkerRegistersEmbeddingHandler(t *testing.T) {
	app, err := Build(context.Background(), devConfig(t), db.DefaultServerOptions())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	body := `{"text":"Jane Doe\nSkills\nGo, Python, SQL\nProjects\nBuilt a queue in Go","studentId":"s1","batch":"2026","department":"CSE"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	mem, ok := app.Jobs.(*jobs.MemoryRepo)
	require.True(t, ok)
	all := mem.All()
	require.Len(t, all, 1)
	assert.Equal(t, jobs.TypeResumeEmbedding, all[0].Type)

	w := app.NewWorker()
	assert.Contains(t, w.Handlers, jobs.TypeResumeEmbedding)
	assert.NotNil(t, w.OnFailure)
}

func TestThrottleBudgets(t *testing.T) {
	cfg := config.Defaults()
	budgets := throttleBudgets(cfg)
	require.Len(t, budgets, 2)
	assert.Equal(t, 5, budgets["HEAVY"].Burst)
	assert.Equal(t, 1.25, budgets["HEAVY"].PerSecond)

	cfg.RateLimitRPS = 0
	assert.Nil(t, throttleBudgets(cfg))
}
