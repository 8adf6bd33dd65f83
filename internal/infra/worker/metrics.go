package worker

import (
	"release-radar/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the worker component.
// It embeds the standard ConfigMetrics for configuration monitoring and adds
// worker-specific metrics for poll cycle tracking.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp: Unix timestamp of last configuration load
//   - worker_config_validation_errors_total: Total validation errors by field
//   - worker_config_fallbacks_total: Total fallback operations by field
//   - worker_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Worker-specific metrics:
//   - worker_poll_cycle_runs_total: Total poll cycle runs by status (success/failure)
//   - worker_poll_cycle_duration_seconds: Duration histogram of poll cycle execution
//   - worker_poll_checks_total: Total artist/kind checks performed
//   - worker_poll_notifications_total: Total notifications delivered
//   - worker_poll_cooldown_skips_total: Total checks skipped due to platform cooldown
//   - worker_poll_rate_limit_hits_total: Total platform rate-limit signals
//   - worker_poll_cycle_last_success_timestamp: Unix timestamp of last successful cycle
//
// Example usage:
//
//	metrics := NewWorkerMetrics()
//	metrics.MustRegister()
//
//	start := time.Now()
//	stats, err := svc.RunCycle(ctx)
//	metrics.RecordCycleDuration(time.Since(start).Seconds())
//	if err != nil {
//	    metrics.RecordCycleRun("failure")
//	} else {
//	    metrics.RecordCycleRun("success")
//	    metrics.RecordCycleStats(stats)
//	    metrics.RecordLastSuccess()
//	}
type WorkerMetrics struct {
	// Embedded configuration metrics
	*config.ConfigMetrics

	// PollCycleRunsTotal counts the total number of poll cycle runs.
	// Type: Counter
	// Labels: status (success, failure)
	PollCycleRunsTotal *prometheus.CounterVec

	// PollCycleDurationSeconds measures the duration of poll cycle execution.
	// Type: Histogram
	// Buckets: 1s, 5s, 30s, 1m, 5m, 15m, 30m
	PollCycleDurationSeconds prometheus.Histogram

	// PollChecksTotal counts artist/kind checks performed across all cycles.
	// Type: Counter
	PollChecksTotal prometheus.Counter

	// PollNotificationsTotal counts notifications delivered across all cycles.
	// Type: Counter
	PollNotificationsTotal prometheus.Counter

	// PollCooldownSkipsTotal counts checks skipped while a platform cooldown
	// window was open.
	// Type: Counter
	PollCooldownSkipsTotal prometheus.Counter

	// PollRateLimitHitsTotal counts rate-limit signals received from platforms.
	// Type: Counter
	PollRateLimitHitsTotal prometheus.Counter

	// PollCycleLastSuccessTimestamp records the Unix timestamp of the last
	// successful cycle.
	// Type: Gauge
	PollCycleLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates a new WorkerMetrics instance with all metrics initialized.
// Metrics are created but not registered with Prometheus. Call MustRegister() to register.
//
// Returns:
//   - *WorkerMetrics: Initialized metrics ready for registration
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		PollCycleRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_poll_cycle_runs_total",
			Help: "Total number of poll cycle runs by status (success/failure)",
		}, []string{"status"}),

		PollCycleDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_poll_cycle_duration_seconds",
			Help:    "Duration of poll cycle execution in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800}, // 1s, 5s, 30s, 1m, 5m, 15m, 30m
		}),

		PollChecksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_poll_checks_total",
			Help: "Total number of artist/kind checks performed",
		}),

		PollNotificationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_poll_notifications_total",
			Help: "Total number of notifications delivered",
		}),

		PollCooldownSkipsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_poll_cooldown_skips_total",
			Help: "Total number of checks skipped due to platform cooldown",
		}),

		PollRateLimitHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_poll_rate_limit_hits_total",
			Help: "Total number of platform rate-limit signals",
		}),

		PollCycleLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_poll_cycle_last_success_timestamp",
			Help: "Unix timestamp of the last successful poll cycle",
		}),
	}
}

// MustRegister is a no-op method for API compatibility.
// Metrics are automatically registered via promauto when created in NewWorkerMetrics.
//
// Even though registration happens automatically, this explicit call makes the
// initialization intent clear and maintains compatibility with future changes.
func (m *WorkerMetrics) MustRegister() {
	// No-op: metrics are auto-registered via promauto
}

// RecordCycleRun increments the cycle run counter for the given status.
// Status should be either "success" or "failure".
func (m *WorkerMetrics) RecordCycleRun(status string) {
	m.PollCycleRunsTotal.WithLabelValues(status).Inc()
}

// RecordCycleDuration observes the duration of a poll cycle execution.
// Duration should be in seconds.
func (m *WorkerMetrics) RecordCycleDuration(seconds float64) {
	m.PollCycleDurationSeconds.Observe(seconds)
}

// RecordChecks adds the number of checks performed in one cycle.
func (m *WorkerMetrics) RecordChecks(count int) {
	m.PollChecksTotal.Add(float64(count))
}

// RecordNotifications adds the number of notifications delivered in one cycle.
func (m *WorkerMetrics) RecordNotifications(count int) {
	m.PollNotificationsTotal.Add(float64(count))
}

// RecordCooldownSkips adds the number of cooldown-suppressed checks in one cycle.
func (m *WorkerMetrics) RecordCooldownSkips(count int) {
	m.PollCooldownSkipsTotal.Add(float64(count))
}

// RecordRateLimitHits adds the number of rate-limit signals seen in one cycle.
func (m *WorkerMetrics) RecordRateLimitHits(count int) {
	m.PollRateLimitHitsTotal.Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful cycle completion.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.PollCycleLastSuccessTimestamp.SetToCurrentTime()
}
