package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	resumeMutations   = newCounterVec()
	mutationFailures  = newCounterVec()
	optimizerFallback atomic.Uint64
	journalRecovered  atomic.Uint64
	journalAbandoned  atomic.Uint64
	portfolioViews    atomic.Uint64
	exportsRendered   atomic.Uint64
	exportsCacheHits  atomic.Uint64

	optimizerDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	renderDuration    = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncResumeMutation counts a committed mutation by operation (create, update, restore, optimize, checkpoint, delete).
func IncResumeMutation(op string) {
	resumeMutations.Inc(op)
}

// IncMutationFailure counts a mutation that failed part-way by operation.
func IncMutationFailure(op string) {
	mutationFailures.Inc(op)
}

// IncOptimizerFallback counts optimizations served by the local fallback.
func IncOptimizerFallback() {
	optimizerFallback.Add(1)
}

// IncJournalRecovered counts pending journal entries rolled forward.
func IncJournalRecovered() {
	journalRecovered.Add(1)
}

// IncJournalAbandoned counts pending journal entries that could not be rolled forward.
func IncJournalAbandoned() {
	journalAbandoned.Add(1)
}

// IncPortfolioView counts public portfolio reads.
func IncPortfolioView() {
	portfolioViews.Add(1)
}

// IncExportRendered counts PDFs rendered.
func IncExportRendered() {
	exportsRendered.Add(1)
}

// IncExportCacheHit counts PDF exports served from the object store.
func IncExportCacheHit() {
	exportsCacheHits.Add(1)
}

// ObserveOptimizerDurationMs records an optimizer call duration in milliseconds.
func ObserveOptimizerDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	optimizerDuration.Observe(value)
}

// ObserveRenderDurationMs records a PDF render duration in milliseconds.
func ObserveRenderDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	renderDuration.Observe(value)
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
	writeCounterVec(&buf, "resume_mutations_total", "Committed resume mutations by operation", "op", resumeMutations.Snapshot())
	writeCounterVec(&buf, "resume_mutation_failures_total", "Resume mutations that failed part-way by operation", "op", mutationFailures.Snapshot())
	writeCounter(&buf, "optimizer_fallback_total", "Optimizations served by the local fallback", optimizerFallback.Load())
	writeCounter(&buf, "journal_recovered_total", "Pending mutation journal entries rolled forward", journalRecovered.Load())
	writeCounter(&buf, "journal_abandoned_total", "Pending mutation journal entries abandoned", journalAbandoned.Load())
	writeCounter(&buf, "portfolio_views_total", "Public portfolio views", portfolioViews.Load())
	writeCounter(&buf, "exports_rendered_total", "PDF exports rendered", exportsRendered.Load())
	writeCounter(&buf, "exports_cache_hits_total", "PDF exports served from storage", exportsCacheHits.Load())
	writeHistogram(&buf, "optimizer_duration_ms", "Optimizer call duration in milliseconds", optimizerDuration.Snapshot())
	writeHistogram(&buf, "render_duration_ms", "PDF render duration in milliseconds", renderDuration.Snapshot())
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: make(map[string]uint64)}
}

func (v *counterVec) Inc(label string) {
	v.mu.Lock()
	v.values[label]++
	v.mu.Unlock()
}

func (v *counterVec) Snapshot() map[string]uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]uint64, len(v.values))
	for k, n := range v.values {
		out[k] = n
	}
	return out
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
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeCounterVec(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
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

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
