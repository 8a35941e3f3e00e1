package quota

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterDailyWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2)
	l.Now = func() time.Time { return now }
	ctx := context.Background()

	first, err := l.Consume(ctx, "s1", "missing")
	require.NoError(t, err)
	assert.Equal(t, Result{Allowed: true, Limit: 2, Used: 1, Remaining: 1, ResetAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}, first)

	_, err = l.Consume(ctx, "s1", "missing")
	require.NoError(t, err)
	denied, err := l.Consume(ctx, "s1", "missing")
	require.NoError(t, err)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 2, denied.Used)
	assert.Zero(t, denied.Remaining)

	other, err := l.Consume(ctx, "s2", "missing")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = now.Add(2 * time.Hour)
	nextDay, err := l.Consume(ctx, "s1", "missing")
	require.NoError(t, err)
	assert.True(t, nextDay.Allowed)
	assert.Equal(t, 1, nextDay.Used)
}

func TestDayKey(t *testing.T) {
	now := time.Date(2026, 3, 1, 5, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	assert.Equal(t, "llmquota:missing:s1:20260228", dayKey("llmquota", "missing", "s1", now))
}

func TestRedisLimiterSurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "", 0)
	assert.Equal(t, defaultKeyPrefix, l.Prefix)
	assert.Equal(t, DefaultDailyLimit, l.Limit)

	_, err := l.Consume(context.Background(), "s1", "missing")
	assert.Error(t, err)
}
