// Package internal contains helpers that are private to the auth engine,
// currently opaque secret generation and hashing.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for every Engine operation
//   - metrics: lock-free counters and latency histograms
//   - rate: Redis-backed login failure throttle
//   - config: service configuration loading
//   - server: gin HTTP transport
//
// # What this package must NOT do
//
//   - Export types that appear in the public auth API.
package internal
