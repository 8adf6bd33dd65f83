package slo

import (
	"context"
	"sort"
	"sync"
	"time"
)

// maxWindowSamples caps the latency sample buffer per reporting window.
// Requests beyond the cap still count toward availability and error rate,
// but their latencies are not sampled.
const maxWindowSamples = 16384

// Tracker accumulates request outcomes over a reporting window and
// publishes the SLO gauges on each tick. All methods are safe for
// concurrent use.
type Tracker struct {
	mu        sync.Mutex
	total     int64
	errors    int64
	durations []float64
}

// NewTracker returns a Tracker with an empty measurement window.
func NewTracker() *Tracker {
	return &Tracker{
		durations: make([]float64, 0, 1024),
	}
}

// Record registers a completed request. Status codes >= 500 count
// against availability and the error rate.
func (t *Tracker) Record(status int, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	if status >= 500 {
		t.errors++
	}
	if len(t.durations) < maxWindowSamples {
		t.durations = append(t.durations, duration.Seconds())
	}
}

// Run publishes the SLO gauges every interval until ctx is cancelled.
// The measurement window resets after each publish.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.publish()
		}
	}
}

// publish computes ratios and quantiles from the current window, sets
// the gauges, and resets the window. An empty window leaves the gauges
// at their previous values.
func (t *Tracker) publish() {
	t.mu.Lock()
	total := t.total
	errors := t.errors
	durations := t.durations
	t.total = 0
	t.errors = 0
	t.durations = make([]float64, 0, 1024)
	t.mu.Unlock()

	if total == 0 {
		return
	}

	UpdateAvailability(float64(total-errors) / float64(total))
	UpdateErrorRate(float64(errors) / float64(total))

	if len(durations) > 0 {
		sort.Float64s(durations)
		UpdateLatencyP95(quantile(durations, 0.95))
		UpdateLatencyP99(quantile(durations, 0.99))
	}
}

// quantile returns the nearest-rank quantile of a sorted sample set.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(q*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

var defaultTracker = NewTracker()

// Record registers a completed request with the default tracker.
func Record(status int, duration time.Duration) {
	defaultTracker.Record(status, duration)
}

// Run publishes the default tracker's gauges every interval until ctx
// is cancelled. Intended to run as a background goroutine.
func Run(ctx context.Context, interval time.Duration) {
	defaultTracker.Run(ctx, interval)
}
