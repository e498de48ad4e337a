package revocation

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryFillAndExpire(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewMemory(5*time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := c.Fill(ctx, "a", 3); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if v, ok, _ := c.Get(ctx, "a"); !ok || v != 3 {
		t.Fatalf("expected hit 3, got %d %v", v, ok)
	}

	clock.Advance(5 * time.Minute)
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatal("expected entry to expire after ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, len=%d", c.Len())
	}
}

func TestMemoryFillNeverLowersVersion(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	_ = c.Invalidate(ctx, "a", 5)
	_ = c.Fill(ctx, "a", 4)

	if v, ok, _ := c.Get(ctx, "a"); !ok || v != 5 {
		t.Fatalf("stale fill must not win, got %d %v", v, ok)
	}

	_ = c.Invalidate(ctx, "a", 6)
	if v, _, _ := c.Get(ctx, "a"); v != 6 {
		t.Fatalf("expected invalidate to publish 6, got %d", v)
	}
}

func TestMemoryExpiredEntryDoesNotBlockLowerFill(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewMemory(time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	_ = c.Fill(ctx, "a", 9)
	clock.Advance(2 * time.Minute)
	_ = c.Fill(ctx, "a", 2)

	if v, ok, _ := c.Get(ctx, "a"); !ok || v != 2 {
		t.Fatalf("expected fresh fill after expiry, got %d %v", v, ok)
	}
}

func TestMemoryConcurrentWritesKeepMaximum(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := int64(1); i <= 100; i++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			_ = c.Fill(ctx, "a", v)
		}(i)
	}
	wg.Wait()

	if v, _, _ := c.Get(ctx, "a"); v != 100 {
		t.Fatalf("expected max version 100, got %d", v)
	}
}
