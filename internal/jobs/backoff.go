package jobs

import "time"

const (
	minBackoff = time.Second
	maxBackoff = 60 * time.Second
)

// Backoff is the delay before retrying a job that has been claimed
// attempts times: 2^attempts seconds, clamped to [1s, 60s].
func Backoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts >= 6 {
		return maxBackoff
	}
	d := time.Duration(1<<attempts) * time.Second
	if d < minBackoff {
		return minBackoff
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
