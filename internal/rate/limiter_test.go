package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestLimiterBlocksAfterMaxFailures(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := New(rdb, Config{MaxFailures: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckLogin(ctx, "alice"); err != nil {
			t.Fatalf("attempt %d: unexpected %v", i, err)
		}
		if err := l.RecordLoginFailure(ctx, "alice"); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := l.CheckLogin(ctx, "alice"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.CheckLogin(ctx, "bob"); err != nil {
		t.Fatalf("other identifiers must not be affected: %v", err)
	}

	mr.FastForward(time.Minute)
	if err := l.CheckLogin(ctx, "alice"); err != nil {
		t.Fatalf("expected window to reset, got %v", err)
	}
}

func TestLimiterResetClearsCounter(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := New(rdb, Config{MaxFailures: 1, Window: time.Minute})
	ctx := context.Background()

	_ = l.RecordLoginFailure(ctx, "alice")
	if n, _ := l.Failures(ctx, "alice"); n != 1 {
		t.Fatalf("expected 1 failure, got %d", n)
	}
	if err := l.ResetLogin(ctx, "alice"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := l.CheckLogin(ctx, "alice"); err != nil {
		t.Fatalf("expected reset to clear limit, got %v", err)
	}
}

func TestLimiterRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := New(rdb, Config{MaxFailures: 1, Window: time.Minute})
	mr.Close()

	if err := l.CheckLogin(context.Background(), "alice"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
