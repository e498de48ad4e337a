package revocation

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a cached version may lag the store for paths
// that did not go through Invalidate.
const DefaultTTL = 5 * time.Minute

// Cache maps account id to last known session version.
type Cache interface {
	// Get returns the cached version. ok is false on a miss or expired entry.
	Get(ctx context.Context, accountID string) (version int64, ok bool, err error)
	// Fill records a version read from the store unless a newer one is cached.
	Fill(ctx context.Context, accountID string, version int64) error
	// Invalidate drops whatever was cached for the account and publishes the
	// version the caller just committed, with a fresh TTL.
	Invalidate(ctx context.Context, accountID string, current int64) error
}
