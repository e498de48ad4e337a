// Package flows contains pure-function orchestrators for every Engine
// operation.
//
// Each flow (RunLogin, RunRefresh, RunLogout, RunValidate, RunGate,
// RunIssueSecretToken, RunRedeemSecretToken) takes a typed dependency struct
// and returns a result carrying a failure kind instead of an error for
// business rejections. The engine maps kinds to public errors, metrics and
// audit events.
//
// # Version bumps
//
// Every flow that bumps a session version publishes the new value to the
// revocation cache right after the store write, with a context detached from
// the caller's cancellation. A client disconnecting between the two writes
// must not leave a stale cache entry behind.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the auth package.
//   - Perform I/O other than through its dependencies.
package flows
