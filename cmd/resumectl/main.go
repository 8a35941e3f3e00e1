// Command resumectl parses, scores and ranks resumes from the terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"resume-ranker/internal/shared/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		telemetry.Error("resumectl.failed", map[string]any{"error": err.Error()})
		stop()
		os.Exit(1)
	}
}
