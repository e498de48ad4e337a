package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "lf:"

// Config tunes the login throttle.
type Config struct {
	MaxFailures int
	Window      time.Duration
	KeyPrefix   string
}

// Limiter counts failed logins per identifier in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	return &Limiter{redis: redisClient, config: cfg}
}

func (l *Limiter) key(identifier string) string {
	return l.config.KeyPrefix + identifier
}

// CheckLogin returns ErrRateLimited when the identifier has used up its
// failure budget in the current window.
func (l *Limiter) CheckLogin(ctx context.Context, identifier string) error {
	count, err := l.redis.Get(ctx, l.key(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.config.MaxFailures) {
		return ErrRateLimited
	}
	return nil
}

// RecordLoginFailure counts one failed attempt.
func (l *Limiter) RecordLoginFailure(ctx context.Context, identifier string) error {
	key := l.key(identifier)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return nil
}

// ResetLogin clears the counter after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, identifier string) error {
	if err := l.redis.Del(ctx, l.key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Failures returns the current counter value.
func (l *Limiter) Failures(ctx context.Context, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}
