package auth

import (
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/internal/metrics"
)

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot = metrics.Snapshot

// MetricsSnapshot returns current metric values. Exporters in
// metrics/export read from it.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return metrics.New(metrics.Config{}).Snapshot()
	}
	return e.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped for backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id metrics.ID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeSince(id metrics.HistogramID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, e.now().Sub(start))
}
