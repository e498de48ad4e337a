// Package rate implements the Redis-backed login failure throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + EXPIRE on the first hit of a window. Keys are
// "<prefix><identifier>" with the default prefix "lf:".
//
// # What this package must NOT do
//
//   - Decide what a rejection means to the caller. Flows map ErrRateLimited.
package rate
