// Package password implements password hashing and verification.
//
// Two algorithms are provided behind [Hasher]: Argon2id (default) encoded in
// PHC string format
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// and bcrypt. Both report [Hasher.NeedsUpgrade] when a stored hash was produced
// with weaker parameters, so callers can re-hash after a successful login.
//
// Verification always runs the full key derivation, including against
// malformed-but-parseable hashes, so the cost of a mismatch does not depend on
// why it mismatched.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Log plaintext passwords or hash parameters.
package password
