// Package otel publishes engine metrics as OpenTelemetry observable
// instruments.
//
// Each counter becomes an Int64ObservableCounter. Histograms are flattened
// into one cumulative gauge per bucket plus _count and _sum gauges, all read
// from a single snapshot per collection. The caller owns the MeterProvider.
package otel
