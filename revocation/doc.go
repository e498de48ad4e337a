// Package revocation caches the last known session version per account so the
// per-request validation gate does not read the durable store every time.
//
// Entries expire a fixed TTL after they are written. Writes are monotonic: a
// write carrying a version lower than the cached one is ignored. A slow
// miss-then-fill that read the store before a concurrent bump therefore cannot
// overwrite the bumped value published by Invalidate.
//
// Rebuilding an entry from the store is always correct, only slower.
package revocation
