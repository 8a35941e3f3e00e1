package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"resume-ranker/internal/bootstrap"
	"resume-ranker/internal/shared/config"
	"resume-ranker/internal/shared/storage/db"
	"resume-ranker/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("config.load_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	telemetry.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, db.DefaultWorkerOptions(cfg.Worker.Concurrency))
	if err != nil {
		telemetry.Error("worker.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer app.Close()

	if app.InMemory {
		telemetry.Warn("worker.memory_repos", map[string]any{
			"reason": "no database; this process only sees its own jobs",
		})
	}

	if err := run(ctx, app); err != nil {
		telemetry.Error("worker.exit", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

// run enqueues embeddings for resumes that have none, then works the queue
// until ctx is cancelled. In-flight jobs are released before it returns.
func run(ctx context.Context, app *bootstrap.App) error {
	n, err := app.Queue.Backfill(ctx, app.Resumes)
	if err != nil {
		return err
	}
	telemetry.Info("worker.backfilled", map[string]any{"enqueued": n})

	app.NewWorker().Run(ctx)
	return nil
}
