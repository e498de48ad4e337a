package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces cache keys.
const DefaultKeyPrefix = "sv:"

// ErrRedisUnavailable wraps Redis transport errors.
var ErrRedisUnavailable = errors.New("revocation cache unavailable")

const maxSetScript = `
local cur = redis.call("GET", KEYS[1])
if cur and tonumber(cur) > tonumber(ARGV[1]) then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`

var maxSetLua = redis.NewScript(maxSetScript)

// Redis is a Cache shared by every process using the same Redis.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis returns a Redis-backed cache. Empty prefix and non-positive ttl
// select the defaults.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(accountID string) string {
	return r.prefix + accountID
}

func (r *Redis) Get(ctx context.Context, accountID string) (int64, bool, error) {
	v, err := r.client.Get(ctx, r.key(accountID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return v, true, nil
}

func (r *Redis) Fill(ctx context.Context, accountID string, version int64) error {
	return r.maxSet(ctx, accountID, version)
}

func (r *Redis) Invalidate(ctx context.Context, accountID string, current int64) error {
	return r.maxSet(ctx, accountID, current)
}

func (r *Redis) maxSet(ctx context.Context, accountID string, version int64) error {
	err := maxSetLua.Run(ctx, r.client, []string{r.key(accountID)}, version, r.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
