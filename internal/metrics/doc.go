// Package metrics provides lock-free counters and latency histograms for the
// authentication engine.
//
// Counters live in cache-line padded uint64 slots and are bumped with
// sync/atomic. Histograms use eight fixed buckets (<=5ms up to +Inf) plus a
// running sum in nanoseconds. Neither allocates on the write path.
//
// Export (Prometheus, OTel) lives in metrics/export and reads [Snapshot]
// values. This package performs no I/O and owns no global registry.
package metrics
