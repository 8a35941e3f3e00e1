package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"resume-ranker/internal/shared/server/respond"
)

// DefaultClass is the endpoint class used when Classify returns nothing.
const DefaultClass = "DEFAULT"

// Budget is what one caller may spend on an endpoint class: PerSecond
// requests refill a bucket holding at most Burst.
type Budget struct {
	PerSecond float64
	Burst     int
}

func (b Budget) unlimited() bool {
	return b.PerSecond <= 0 || b.Burst <= 0
}

// ThrottleConfig maps endpoint classes to budgets. A class with no budget is
// not throttled.
type ThrottleConfig struct {
	Budgets  map[string]Budget
	Classify func(*gin.Context) string
	Buckets  *Buckets
}

// Buckets tracks the remaining budget of every caller per endpoint class.
type Buckets struct {
	mu    sync.Mutex
	state map[bucketKey]*bucket
	clock func() time.Time
}

type bucketKey struct {
	caller string
	class  string
}

type bucket struct {
	tokens   float64
	refilled time.Time
}

func NewBuckets(clock func() time.Time) *Buckets {
	if clock == nil {
		clock = time.Now
	}
	return &Buckets{state: make(map[bucketKey]*bucket), clock: clock}
}

// Take spends one request from the caller's bucket. When the bucket is empty
// it reports how long until the next request fits.
func (bs *Buckets) Take(caller, class string, b Budget) (time.Duration, bool) {
	if bs == nil || b.unlimited() {
		return 0, true
	}
	now := bs.clock()

	bs.mu.Lock()
	defer bs.mu.Unlock()

	key := bucketKey{caller: caller, class: class}
	bk, ok := bs.state[key]
	if !ok {
		bk = &bucket{tokens: float64(b.Burst), refilled: now}
		bs.state[key] = bk
	}
	if dt := now.Sub(bk.refilled).Seconds(); dt > 0 {
		bk.tokens = math.Min(float64(b.Burst), bk.tokens+dt*b.PerSecond)
		bk.refilled = now
	}
	if bk.tokens >= 1 {
		bk.tokens--
		return 0, true
	}
	secs := (1 - bk.tokens) / b.PerSecond
	return time.Duration(math.Ceil(secs*1000)) * time.Millisecond, false
}

// Throttle rejects callers that overspend the budget of the endpoint class
// they hit. Students are keyed by id, anonymous callers by client IP.
func Throttle(cfg ThrottleConfig) gin.HandlerFunc {
	if cfg.Buckets == nil {
		cfg.Buckets = NewBuckets(nil)
	}
	return func(c *gin.Context) {
		class := DefaultClass
		if cfg.Classify != nil {
			if v := strings.TrimSpace(cfg.Classify(c)); v != "" {
				class = v
			}
		}
		budget, ok := cfg.Budgets[class]
		if !ok {
			c.Next()
			return
		}
		if wait, allowed := cfg.Buckets.Take(caller(c), class, budget); !allowed {
			rejectThrottled(c, wait)
			return
		}
		c.Next()
	}
}

func caller(c *gin.Context) string {
	if id := strings.TrimSpace(StudentIDFromContext(c)); id != "" {
		return "student:" + id
	}
	return "ip:" + c.ClientIP()
}

func rejectThrottled(c *gin.Context, wait time.Duration) {
	if wait <= 0 {
		wait = time.Second
	}
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many requests", gin.H{
		"retryAfterMs": wait.Milliseconds(),
	})
}
