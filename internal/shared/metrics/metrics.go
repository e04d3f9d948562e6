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
	generationStartedTotal   atomic.Uint64
	generationCompletedTotal atomic.Uint64
	generationFailedTotal    atomic.Uint64
	cacheHitsTotal           atomic.Uint64
	cacheMissesTotal         atomic.Uint64
	retrievalQueriesTotal    atomic.Uint64
	synthesisAttemptsTotal   atomic.Uint64
	translationAttemptsTotal atomic.Uint64
	renderAttemptsTotal      atomic.Uint64
	jobsReceivedTotal        atomic.Uint64
	jobsCompletedTotal       atomic.Uint64
	jobsFailedTotal          atomic.Uint64
	jobsDroppedTotal         atomic.Uint64

	generationDuration = newHistogram([]float64{500, 1000, 2500, 5000, 10000, 30000, 60000, 120000, 300000})
)

// IncGenerationStarted increments the started counter.
func IncGenerationStarted() {
	generationStartedTotal.Add(1)
}

// IncGenerationCompleted increments the completed counter.
func IncGenerationCompleted() {
	generationCompletedTotal.Add(1)
}

// IncGenerationFailed increments the failed counter.
func IncGenerationFailed() {
	generationFailedTotal.Add(1)
}

// IncCacheHit counts a generation served from the cache.
func IncCacheHit() {
	cacheHitsTotal.Add(1)
}

// IncCacheMiss counts a cache lookup that fell through to the pipeline.
func IncCacheMiss() {
	cacheMissesTotal.Add(1)
}

// AddRetrievalQueries counts similarity queries issued against the experience store.
func AddRetrievalQueries(n int) {
	if n > 0 {
		retrievalQueriesTotal.Add(uint64(n))
	}
}

func IncSynthesisAttempt() {
	synthesisAttemptsTotal.Add(1)
}

func IncTranslationAttempt() {
	translationAttemptsTotal.Add(1)
}

func IncRenderAttempt() {
	renderAttemptsTotal.Add(1)
}

// IncJobsReceived counts queued generation messages picked up by a worker.
func IncJobsReceived() {
	jobsReceivedTotal.Add(1)
}

// IncJobsCompleted counts queued generations that reached a terminal event.
func IncJobsCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncJobsFailed counts queued generations left on the queue for redelivery.
func IncJobsFailed() {
	jobsFailedTotal.Add(1)
}

// IncJobsDropped counts malformed messages deleted without processing.
func IncJobsDropped() {
	jobsDroppedTotal.Add(1)
}

// ObserveGenerationDurationMs records a pipeline duration in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
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
	writeCounter(&buf, "generation_started_total", "Total generations started", generationStartedTotal.Load())
	writeCounter(&buf, "generation_completed_total", "Total generations completed", generationCompletedTotal.Load())
	writeCounter(&buf, "generation_failed_total", "Total generations failed", generationFailedTotal.Load())
	writeCounter(&buf, "generation_cache_hits_total", "Generations served from cache", cacheHitsTotal.Load())
	writeCounter(&buf, "generation_cache_misses_total", "Generation cache misses", cacheMissesTotal.Load())
	writeCounter(&buf, "retrieval_queries_total", "Similarity queries issued", retrievalQueriesTotal.Load())
	writeCounter(&buf, "synthesis_attempts_total", "Resume synthesis model attempts", synthesisAttemptsTotal.Load())
	writeCounter(&buf, "translation_attempts_total", "Resume translation model attempts", translationAttemptsTotal.Load())
	writeCounter(&buf, "render_attempts_total", "Document conversion attempts", renderAttemptsTotal.Load())
	writeCounter(&buf, "generation_jobs_received_total", "Queued generations received", jobsReceivedTotal.Load())
	writeCounter(&buf, "generation_jobs_completed_total", "Queued generations completed", jobsCompletedTotal.Load())
	writeCounter(&buf, "generation_jobs_failed_total", "Queued generations left for redelivery", jobsFailedTotal.Load())
	writeCounter(&buf, "generation_jobs_dropped_total", "Malformed queued generations dropped", jobsDroppedTotal.Load())
	writeHistogram(&buf, "generation_duration_ms", "Generation duration in milliseconds", generationDuration.Snapshot())
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
			break
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

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
