package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	resumesIngestedTotal     atomic.Uint64
	resumesIngestFailedTotal atomic.Uint64

	jobsEnqueuedTotal  atomic.Uint64
	jobsClaimedTotal   atomic.Uint64
	jobsCompletedTotal atomic.Uint64
	jobsRetriedTotal   atomic.Uint64
	jobsFailedTotal    atomic.Uint64

	jobDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncResumesIngested counts resumes parsed and stored.
func IncResumesIngested() { resumesIngestedTotal.Add(1) }

// IncResumesIngestFailed counts uploads rejected before storage.
func IncResumesIngestFailed() { resumesIngestFailedTotal.Add(1) }

// IncJobsEnqueued counts job upserts.
func IncJobsEnqueued() { jobsEnqueuedTotal.Add(1) }

// IncJobsClaimed counts leases taken by workers.
func IncJobsClaimed() { jobsClaimedTotal.Add(1) }

// IncJobsCompleted counts jobs finished successfully.
func IncJobsCompleted() { jobsCompletedTotal.Add(1) }

// IncJobsRetried counts jobs put back on the queue after an error.
func IncJobsRetried() { jobsRetriedTotal.Add(1) }

// IncJobsFailed counts jobs marked permanently failed.
func IncJobsFailed() { jobsFailedTotal.Add(1) }

// ObserveJobDurationMs records one handler run in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "resumes_ingested_total", "Resumes parsed and stored", resumesIngestedTotal.Load())
	writeCounter(&buf, "resumes_ingest_failed_total", "Resume uploads rejected", resumesIngestFailedTotal.Load())
	writeCounter(&buf, "jobs_enqueued_total", "Jobs enqueued", jobsEnqueuedTotal.Load())
	writeCounter(&buf, "jobs_claimed_total", "Jobs leased by workers", jobsClaimedTotal.Load())
	writeCounter(&buf, "jobs_completed_total", "Jobs completed", jobsCompletedTotal.Load())
	writeCounter(&buf, "jobs_retried_total", "Jobs rescheduled after an error", jobsRetriedTotal.Load())
	writeCounter(&buf, "jobs_failed_total", "Jobs failed permanently", jobsFailedTotal.Load())
	writeHistogram(&buf, "job_duration_ms", "Job handler duration in milliseconds", jobDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Since returns the milliseconds elapsed since start.
func Since(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
