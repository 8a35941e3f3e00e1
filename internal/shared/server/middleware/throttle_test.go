package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedBuckets() *Buckets {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	return NewBuckets(func() time.Time { return now })
}

func newThrottledRouter(buckets *Buckets, budgets map[string]Budget, classify func(*gin.Context) string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Principal(), Throttle(ThrottleConfig{
		Budgets:  budgets,
		Classify: classify,
		Buckets:  buckets,
	}))
	r.GET("/api/v1/resumes/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.POST("/api/v1/jd/match", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func serve(r *gin.Engine, method, path, student string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if student != "" {
		req.Header.Set("X-Student-Id", student)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestThrottleClassesHaveSeparateBudgets(t *testing.T) {
	classify := func(c *gin.Context) string {
		if c.Request.Method == http.MethodGet {
			return "READ"
		}
		return ""
	}
	r := newThrottledRouter(fixedBuckets(), map[string]Budget{
		DefaultClass: {PerSecond: 1, Burst: 2},
		"READ":       {PerSecond: 5, Burst: 10},
	}, classify)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/resumes/r1", "s1").Code)
	}
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/v1/jd/match", "s1").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/api/v1/jd/match", "s1").Code)
}

func TestThrottleUnbudgetedClassPasses(t *testing.T) {
	r := newThrottledRouter(fixedBuckets(), map[string]Budget{"HEAVY": {PerSecond: 1, Burst: 1}}, nil)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/v1/jd/match", "s1").Code)
	}
}

func TestThrottleKeysByStudent(t *testing.T) {
	r := newThrottledRouter(fixedBuckets(), map[string]Budget{DefaultClass: {PerSecond: 1, Burst: 1}}, nil)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/v1/jd/match", "s1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/api/v1/jd/match", "s1").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/v1/jd/match", "s2").Code)
	// Anonymous callers spend their own IP bucket.
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/v1/jd/match", "").Code)
}

func TestThrottleRejectionCarriesRetryAfter(t *testing.T) {
	r := newThrottledRouter(fixedBuckets(), map[string]Budget{DefaultClass: {PerSecond: 1, Burst: 1}}, nil)

	require.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/v1/jd/match", "").Code)
	resp := serve(r, http.MethodPost, "/api/v1/jd/match", "")
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "1", resp.Header().Get("Retry-After"))

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "rate_limited", body.Error.Code)
	assert.EqualValues(t, 1000, body.Error.Details["retryAfterMs"])
}

func TestBucketsRefill(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	buckets := NewBuckets(func() time.Time { return now })
	budget := Budget{PerSecond: 2, Burst: 1}

	_, ok := buckets.Take("student:s1", DefaultClass, budget)
	require.True(t, ok)
	wait, ok := buckets.Take("student:s1", DefaultClass, budget)
	require.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)

	now = now.Add(500 * time.Millisecond)
	_, ok = buckets.Take("student:s1", DefaultClass, budget)
	assert.True(t, ok)
}

func TestBucketsUnlimitedBudget(t *testing.T) {
	buckets := fixedBuckets()
	for i := 0; i < 3; i++ {
		_, ok := buckets.Take("ip:1.2.3.4", DefaultClass, Budget{})
		assert.True(t, ok)
	}
	var nilBuckets *Buckets
	_, ok := nilBuckets.Take("x", DefaultClass, Budget{PerSecond: 1, Burst: 1})
	assert.True(t, ok)
}
