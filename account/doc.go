// Package account defines the durable credential records the engine reads and
// mutates, and the store contracts a backing database must satisfy.
//
// # Versioning
//
// Every account carries a session version. Tokens embed the version they were
// minted against; bumping it revokes every outstanding token at once. Stores
// must expose the bump as an atomic increment (or compare-and-increment) so two
// concurrent session events never compute the same next value.
//
// # What this package must NOT do
//
//   - Import the engine, jwt, or any concrete driver.
//   - Decide business outcomes. Stores report state; flows judge it.
package account
