package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records outcomes of sync passes and per-row applies.
type SyncMetrics struct {
	passDuration   *prometheus.HistogramVec
	rowsApplied    *prometheus.CounterVec
	rowsFailed     *prometheus.CounterVec
	alreadyApplied prometheus.Counter
	passesSkipped  prometheus.Counter
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
// A nil registerer yields a no-op recorder, matching test usage.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	passDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_pass_duration_seconds",
		Help:    "Duration of outbox sync passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	rowsApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_rows_applied_total",
		Help: "Queue rows applied to the remote store.",
	}, []string{"event_type"})
	rowsFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_rows_failed_total",
		Help: "Queue rows that failed remote application.",
	}, []string{"event_type", "error_code"})
	alreadyApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_rows_already_applied_total",
		Help: "Rows short-circuited by the remote idempotency marker.",
	})
	passesSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_passes_skipped_total",
		Help: "Passes skipped because one was already in flight or the device was offline.",
	})
	reg.MustRegister(passDuration, rowsApplied, rowsFailed, alreadyApplied, passesSkipped)
	return &SyncMetrics{
		passDuration:   passDuration,
		rowsApplied:    rowsApplied,
		rowsFailed:     rowsFailed,
		alreadyApplied: alreadyApplied,
		passesSkipped:  passesSkipped,
	}
}

// ObservePass records the duration of a completed pass for the given trigger.
func (m *SyncMetrics) ObservePass(trigger string, duration time.Duration) {
	if m == nil || m.passDuration == nil {
		return
	}
	m.passDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}

// IncApplied increments the applied counter for the event type.
func (m *SyncMetrics) IncApplied(eventType string) {
	if m == nil || m.rowsApplied == nil {
		return
	}
	m.rowsApplied.WithLabelValues(eventType).Inc()
}

// IncFailed increments the failed counter for the event type and error code.
func (m *SyncMetrics) IncFailed(eventType, errorCode string) {
	if m == nil || m.rowsFailed == nil {
		return
	}
	m.rowsFailed.WithLabelValues(eventType, errorCode).Inc()
}

// IncAlreadyApplied increments the idempotent short-circuit counter.
func (m *SyncMetrics) IncAlreadyApplied() {
	if m == nil || m.alreadyApplied == nil {
		return
	}
	m.alreadyApplied.Inc()
}

// IncSkipped increments the skipped-pass counter.
func (m *SyncMetrics) IncSkipped() {
	if m == nil || m.passesSkipped == nil {
		return
	}
	m.passesSkipped.Inc()
}
