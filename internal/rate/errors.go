package rate

import "errors"

var (
	// ErrRateLimited is returned once the failure budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis transport errors.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
