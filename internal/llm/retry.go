package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"resume-ranker/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

// Retrying retries a Client once after a transient failure.
type Retrying struct {
	Base  Client
	Delay time.Duration
}

// WithRetry wraps base. A nil base stays nil.
func WithRetry(base Client) Client {
	if base == nil {
		return nil
	}
	return Retrying{Base: base, Delay: retryBaseDelay}
}

func (r Retrying) Complete(ctx context.Context, messages []Message) (string, error) {
	out, err := r.Base.Complete(ctx, messages)
	if err == nil || !ShouldRetry(err) || ctx.Err() != nil {
		return out, err
	}

	telemetry.Warn("llm.retry", map[string]any{"attempt": 1, "error": err.Error()})
	t := time.NewTimer(r.Delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return r.Base.Complete(ctx, messages)
}

// ShouldRetry reports whether err looks like a timeout, a dropped
// connection or a 5xx from the provider.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, ErrNotConfigured) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "http status 5"),
		strings.Contains(msg, "http status 429"),
		strings.Contains(msg, "server_error"),
		strings.Contains(msg, "request timeout"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "unexpected eof"):
		return true
	}
	return false
}
