// Package audit relays security-relevant events to pluggable sinks without
// blocking the request path.
//
// The [Dispatcher] owns a bounded queue and a single delivery goroutine. With
// DropIfFull set, a full queue drops the event and counts it; otherwise Emit
// waits for room or for the caller's context.
//
// Which events exist and when they fire is decided by the engine.
package audit
