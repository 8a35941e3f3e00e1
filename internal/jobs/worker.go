package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"resume-ranker/internal/shared/metrics"
	"resume-ranker/internal/shared/telemetry"
)

// Handler runs one job. Wrap errors with Transient or Unrecoverable to
// steer the retry policy.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job Job) error

func (f HandlerFunc) Handle(ctx context.Context, job Job) error { return f(ctx, job) }

// FailureHandler is called once a job is marked failed.
type FailureHandler interface {
	OnFailure(ctx context.Context, job Job, cause error)
}

// Waiter blocks an idle claim loop until the next poll.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// SleepWaiter waits for the full interval.
type SleepWaiter struct{}

func (SleepWaiter) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WorkerConfig tunes a Worker. Zero fields take defaults.
type WorkerConfig struct {
	ID             string        `yaml:"id"`
	Concurrency    int           `yaml:"concurrency"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	LeaseTTL       time.Duration `yaml:"lease_ttl"`
	TransientDelay time.Duration `yaml:"transient_delay"`
}

const (
	DefaultConcurrency    = 2
	DefaultPollInterval   = 2 * time.Second
	DefaultTransientDelay = 5 * time.Second
	maxErrorLen           = 1000
	finishTimeout         = 10 * time.Second
)

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.ID == "" {
		c.ID = "worker"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = DefaultLeaseTTL
	}
	if c.TransientDelay <= 0 {
		c.TransientDelay = DefaultTransientDelay
	}
	return c
}

// Worker claims jobs from a Repo and dispatches them by type.
type Worker struct {
	Repo      Repo
	Handlers  map[string]Handler
	OnFailure FailureHandler
	Waiter    Waiter
	Config    WorkerConfig
	Now       func() time.Time
}

// NewWorker builds a worker with defaults applied to cfg.
func NewWorker(repo Repo, cfg WorkerConfig) *Worker {
	return &Worker{
		Repo:     repo,
		Handlers: make(map[string]Handler),
		Waiter:   SleepWaiter{},
		Config:   cfg.withDefaults(),
	}
}

// Register binds h to jobType.
func (w *Worker) Register(jobType string, h Handler) {
	if w.Handlers == nil {
		w.Handlers = make(map[string]Handler)
	}
	w.Handlers[jobType] = h
}

// Run starts Concurrency claim loops and blocks until ctx is done and every
// in-flight job has been released.
func (w *Worker) Run(ctx context.Context) {
	cfg := w.Config.withDefaults()
	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, fmt.Sprintf("%s-%d", cfg.ID, slot))
		}(i)
	}
	telemetry.Info("jobs.worker.started", map[string]any{
		"worker_id":   cfg.ID,
		"concurrency": cfg.Concurrency,
	})
	wg.Wait()
	telemetry.Info("jobs.worker.stopped", map[string]any{"worker_id": cfg.ID})
}

func (w *Worker) loop(ctx context.Context, workerID string) {
	cfg := w.Config.withDefaults()
	waiter := w.Waiter
	if waiter == nil {
		waiter = SleepWaiter{}
	}
	for ctx.Err() == nil {
		worked, err := w.runOnce(ctx, workerID)
		if err != nil && ctx.Err() == nil {
			telemetry.Error("jobs.claim_failed", map[string]any{
				"worker_id": workerID,
				"error":     err.Error(),
			})
		}
		if worked {
			continue
		}
		if err := waiter.Wait(ctx, cfg.PollInterval); err != nil && ctx.Err() == nil {
			telemetry.Warn("jobs.wait_failed", map[string]any{
				"worker_id": workerID,
				"error":     err.Error(),
			})
		}
	}
}

// RunOnce claims and processes at most one job as Config.ID. It reports
// whether a job was claimed.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	return w.runOnce(ctx, w.Config.withDefaults().ID)
}

func (w *Worker) runOnce(ctx context.Context, workerID string) (bool, error) {
	cfg := w.Config.withDefaults()
	if err := w.expireStale(ctx, cfg.LeaseTTL); err != nil {
		return false, err
	}
	job, ok, err := w.Repo.Claim(ctx, workerID, w.now(), cfg.LeaseTTL)
	if err != nil || !ok {
		return false, err
	}
	metrics.IncJobsClaimed()
	w.process(ctx, workerID, job)
	return true, nil
}

// expireStale fails jobs whose worker died on their last attempt.
func (w *Worker) expireStale(ctx context.Context, leaseTTL time.Duration) error {
	expired, err := w.Repo.ExpireStale(ctx, w.now(), leaseTTL)
	if err != nil {
		return err
	}
	for _, job := range expired {
		metrics.IncJobsFailed()
		telemetry.Error("jobs.lease_expired", map[string]any{
			"job_id":   job.ID,
			"job_type": job.Type,
			"attempts": job.Attempts,
		})
		if w.OnFailure != nil {
			w.OnFailure.OnFailure(ctx, job, ErrLeaseExpired)
		}
	}
	return nil
}

func (w *Worker) process(ctx context.Context, workerID string, job Job) {
	cfg := w.Config.withDefaults()
	fields := map[string]any{
		"worker_id": workerID,
		"job_id":    job.ID,
		"job_type":  job.Type,
		"attempts":  job.Attempts,
	}

	start := time.Now()
	var err error
	if h, ok := w.Handlers[job.Type]; ok {
		err = h.Handle(ctx, job)
	} else {
		err = Unrecoverable(fmt.Errorf("%w: %s", ErrUnknownType, job.Type))
	}
	metrics.ObserveJobDurationMs(metrics.Since(start))

	// The lease must be released even when shutdown cancelled the handler.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	if err == nil {
		if ferr := w.Repo.Complete(finishCtx, job.ID, workerID); ferr != nil {
			fields["error"] = ferr.Error()
			telemetry.Error("jobs.complete_failed", fields)
			return
		}
		metrics.IncJobsCompleted()
		telemetry.Info("jobs.completed", fields)
		return
	}

	msg := truncateError(err.Error())
	fields["error"] = msg

	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// Interrupted by shutdown: hand the job back without waiting.
		if ferr := w.Repo.Reschedule(finishCtx, job.ID, workerID, w.now(), msg); ferr != nil {
			fields["release_error"] = ferr.Error()
			telemetry.Error("jobs.release_failed", fields)
		}
		return
	}

	if IsUnrecoverable(err) || job.Attempts >= job.MaxAttempts {
		if ferr := w.Repo.Fail(finishCtx, job.ID, workerID, msg); ferr != nil {
			fields["fail_error"] = ferr.Error()
			telemetry.Error("jobs.fail_failed", fields)
			return
		}
		metrics.IncJobsFailed()
		telemetry.Error("jobs.failed", fields)
		if w.OnFailure != nil {
			w.OnFailure.OnFailure(finishCtx, job, err)
		}
		return
	}

	delay := Backoff(job.Attempts)
	if IsTransient(err) {
		delay = cfg.TransientDelay
	}
	runAt := w.now().Add(delay)
	if ferr := w.Repo.Reschedule(finishCtx, job.ID, workerID, runAt, msg); ferr != nil {
		fields["reschedule_error"] = ferr.Error()
		telemetry.Error("jobs.reschedule_failed", fields)
		return
	}
	metrics.IncJobsRetried()
	fields["retry_in_ms"] = delay.Milliseconds()
	telemetry.Warn("jobs.retry_scheduled", fields)
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}

func truncateError(s string) string {
	r := []rune(s)
	if len(r) <= maxErrorLen {
		return s
	}
	return string(r[:maxErrorLen])
}
