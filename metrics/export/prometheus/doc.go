// Package prometheus exposes engine metrics through a client_golang
// collector.
//
// [NewCollector] reads a fresh snapshot on every scrape. Register it on any
// registry, or use [Collector.Handler] which serves a private registry so
// nothing leaks into the global default.
package prometheus
