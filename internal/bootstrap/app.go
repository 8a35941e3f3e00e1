// Package bootstrap wires configuration into repositories, services and
// the HTTP router shared by the binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resume-ranker/internal/embeddings"
	"resume-ranker/internal/jobs"
	"resume-ranker/internal/llm"
	openai "resume-ranker/internal/llm/openai"
	"resume-ranker/internal/queue"
	"resume-ranker/internal/quota"
	"resume-ranker/internal/resumes"
	"resume-ranker/internal/shared/config"
	"resume-ranker/internal/shared/health"
	"resume-ranker/internal/shared/server"
	"resume-ranker/internal/shared/server/middleware"
	"resume-ranker/internal/shared/storage/db"
	"resume-ranker/internal/shared/storage/object"
	localstore "resume-ranker/internal/shared/storage/object/local"
	s3store "resume-ranker/internal/shared/storage/object/s3"
	"resume-ranker/internal/shared/telemetry"
	"resume-ranker/internal/workerproc"
)

// App holds shared dependencies.
type App struct {
	Config    config.Config
	DB        *sql.DB
	Redis     *redis.Client
	Store     object.ObjectStore
	SQS       *queue.SQSClient
	Embedder  embeddings.Embedder
	Resumes   resumes.Repo
	Jobs      jobs.Repo
	Queue     *jobs.Queue
	Service   *resumes.Service
	Handler   *resumes.Handler
	Health    *health.Service
	Router    *gin.Engine
	DBOptions db.Options
	InMemory  bool
}

// Build prepares every dependency and the router. dbOpts sizes the pool for
// the calling process.
func Build(ctx context.Context, cfg config.Config, dbOpts db.Options) (*App, error) {
	app := &App{Config: cfg, DBOptions: dbOpts, Health: health.NewService()}

	if err := app.buildDB(ctx); err != nil {
		return nil, err
	}
	if err := app.buildStore(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.buildQueue(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.buildService(ctx); err != nil {
		app.Close()
		return nil, err
	}

	app.Handler = resumes.NewHandler(app.Service)
	app.Router = server.NewRouter(server.RouterDeps{
		Resumes:         app.Handler,
		Health:          app.Health,
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		Budgets:         throttleBudgets(cfg),
		Buckets:         middleware.NewBuckets(nil),
	})
	return app, nil
}

func (a *App) buildDB(ctx context.Context) error {
	cfg := a.Config
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if !isDevLike(cfg.Env) {
			return fmt.Errorf("DATABASE_URL is required")
		}
		telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
		a.useMemory()
		return nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(a.DBOptions))
	if err != nil {
		if !isDevLike(cfg.Env) {
			return err
		}
		telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": err.Error()})
		a.useMemory()
		return nil
	}
	a.DB = sqlDB
	a.Resumes = &resumes.PGRepo{DB: sqlDB}
	a.Jobs = &jobs.PGRepo{DB: sqlDB}
	a.Health.Add("db", health.CheckFunc(sqlDB.PingContext))
	return nil
}

func (a *App) useMemory() {
	a.InMemory = true
	a.Resumes = resumes.NewMemoryRepo()
	a.Jobs = jobs.NewMemoryRepo()
}

func (a *App) buildStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return err
		}
		a.Store = store
	default:
		a.Store = localstore.New(cfg.LocalStoreDir)
	}
	return nil
}

func (a *App) buildQueue(ctx context.Context) error {
	var notifier jobs.Notifier
	if strings.TrimSpace(a.Config.SQSQueueURL) != "" {
		client, err := queue.NewSQSClient(ctx, a.Config.AWSRegion, a.Config.SQSQueueURL)
		if err != nil {
			return err
		}
		a.SQS = client
		notifier = client
	}
	a.Queue = jobs.NewQueue(a.Jobs, notifier)
	return nil
}

func (a *App) buildService(ctx context.Context) error {
	cfg := a.Config
	a.Embedder = embeddings.NewClient(cfg.EmbeddingsURL, cfg.EmbeddingsModel, cfg.EmbeddingsTimeout)

	svc := &resumes.Service{
		Repo:             a.Resumes,
		Queue:            a.Queue,
		Store:            a.Store,
		Embedder:         a.Embedder,
		ComparePolicy:    cfg.Cohort.Comparator,
		GapPolicy:        cfg.Cohort.Gaps,
		ShortlistOptions: cfg.Shortlist,
	}

	advisor, err := buildAdvisor(cfg)
	if err != nil {
		return err
	}
	if advisor != nil {
		svc.Advisor = advisor
		limiter, err := a.buildQuota(ctx)
		if err != nil {
			return err
		}
		svc.Quota = limiter
	}

	a.Service = svc
	return nil
}

func buildAdvisor(cfg config.Config) (*llm.Advisor, error) {
	if cfg.LLMProvider != "openai" || strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		telemetry.Info("bootstrap.llm_disabled", map[string]any{"provider": cfg.LLMProvider})
		return nil, nil
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMBaseURL, cfg.LLMTimeout)
	if err != nil {
		return nil, err
	}
	return &llm.Advisor{Client: llm.WithRetry(client)}, nil
}

func (a *App) buildQuota(ctx context.Context) (quota.Limiter, error) {
	cfg := a.Config
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return quota.NewMemoryLimiter(cfg.LLMDailyLimit), nil
	}
	client, err := quota.NewRedisClient(ctx, quota.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		if !isDevLike(cfg.Env) {
			return nil, err
		}
		telemetry.Warn("bootstrap.memory_quota", map[string]any{"reason": err.Error()})
		return quota.NewMemoryLimiter(cfg.LLMDailyLimit), nil
	}
	a.Redis = client
	a.Health.Add("redis", health.CheckFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	return quota.NewRedisLimiter(client, "", cfg.LLMDailyLimit), nil
}

// NewWorker returns an embedding worker over the app's job repo. When SQS
// is configured, idle loops long-poll it instead of sleeping.
func (a *App) NewWorker() *jobs.Worker {
	w := jobs.NewWorker(a.Jobs, a.Config.Worker)
	proc := workerproc.NewProcessor(a.Resumes, a.Embedder, a.Config.EmbeddingsModel)
	w.Register(jobs.TypeResumeEmbedding, proc)
	w.OnFailure = proc
	if a.SQS != nil {
		w.Waiter = a.SQS
	}
	return w
}

// Close releases pooled connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			telemetry.Warn("bootstrap.redis_close_failed", map[string]any{"error": err.Error()})
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			telemetry.Warn("bootstrap.db_close_failed", map[string]any{"error": err.Error()})
		}
	}
}

func throttleBudgets(cfg config.Config) map[string]middleware.Budget {
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil
	}
	heavyBurst := cfg.RateLimitBurst / 4
	if heavyBurst < 1 {
		heavyBurst = 1
	}
	return map[string]middleware.Budget{
		server.ClassDefault: {PerSecond: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
		server.ClassHeavy:   {PerSecond: cfg.RateLimitRPS / 4, Burst: heavyBurst},
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
