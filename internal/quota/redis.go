package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "llmquota"

// RedisLimiter keeps one counter per student, endpoint and UTC day in Redis.
// Counters expire at the end of their day.
type RedisLimiter struct {
	Client redis.Cmdable
	Prefix string
	Limit  int
	Now    func() time.Time
}

// RedisOptions configures NewRedisClient.
type RedisOptions struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NewRedisClient dials Redis and verifies the connection.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// NewRedisLimiter constructs a limiter; limit <= 0 takes the default.
func NewRedisLimiter(client redis.Cmdable, prefix string, limit int) *RedisLimiter {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &RedisLimiter{Client: client, Prefix: prefix, Limit: limit}
}

// Consume atomically increments today's counter and sets its expiry.
// Calls past the limit are rolled back so they do not count as used.
func (r *RedisLimiter) Consume(ctx context.Context, studentID, endpoint string) (Result, error) {
	now := time.Now().UTC()
	if r.Now != nil {
		now = r.Now().UTC()
	}
	key := dayKey(r.Prefix, endpoint, studentID, now)

	pipe := r.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireAt(ctx, key, nextUTCDay(now))
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("quota incr %s: %w", key, err)
	}

	count := incr.Val()
	if count > int64(r.Limit) {
		if err := r.Client.Decr(ctx, key).Err(); err != nil {
			return Result{}, fmt.Errorf("quota rollback %s: %w", key, err)
		}
	}
	return decide(count, r.Limit, now), nil
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*MemoryLimiter)(nil)
)
