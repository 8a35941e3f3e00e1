// Package quota enforces per-student daily limits on LLM calls.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultDailyLimit is how many advice calls a student gets per UTC day.
const DefaultDailyLimit = 5

// Result describes one consume attempt. ResetAt is the start of the next
// UTC day.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// Limiter consumes one unit of a student's daily quota for an endpoint.
type Limiter interface {
	Consume(ctx context.Context, studentID, endpoint string) (Result, error)
}

func dayKey(prefix, endpoint, studentID string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", prefix, endpoint, studentID, now.UTC().Format("20060102"))
}

func nextUTCDay(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// decide turns a post-increment counter into a Result. A denied call does
// not count toward Used.
func decide(count int64, limit int, now time.Time) Result {
	res := Result{Limit: limit, ResetAt: nextUTCDay(now)}
	if count > int64(limit) {
		res.Used = limit
		return res
	}
	res.Allowed = true
	res.Used = int(count)
	res.Remaining = limit - int(count)
	return res
}

// MemoryLimiter keeps counters in process memory.
type MemoryLimiter struct {
	Limit int
	Now   func() time.Time

	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryLimiter constructs a MemoryLimiter; limit <= 0 takes the default.
func NewMemoryLimiter(limit int) *MemoryLimiter {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &MemoryLimiter{Limit: limit, counts: make(map[string]int64)}
}

// Consume increments the student's counter for today.
func (m *MemoryLimiter) Consume(ctx context.Context, studentID, endpoint string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	now := time.Now().UTC()
	if m.Now != nil {
		now = m.Now().UTC()
	}
	key := dayKey("mem", endpoint, studentID, now)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int64)
	}
	next := m.counts[key] + 1
	if next <= int64(m.Limit) {
		m.counts[key] = next
	}
	return decide(next, m.Limit, now), nil
}
