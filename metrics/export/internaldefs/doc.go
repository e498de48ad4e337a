// Package internaldefs holds the metric names and help strings shared by the
// Prometheus and OTel exporters, so both publish identical series.
package internaldefs
