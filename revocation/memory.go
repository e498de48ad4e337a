package revocation

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	version   int64
	expiresAt time.Time
}

// Memory is a process-local Cache.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// MemoryOption customizes NewMemory.
type MemoryOption func(*Memory)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory returns an empty cache. A non-positive ttl selects DefaultTTL.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, accountID string) (int64, bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[accountID]
	if !ok {
		return 0, false, nil
	}
	if !now.Before(e.expiresAt) {
		delete(m.entries, accountID)
		return 0, false, nil
	}
	return e.version, true, nil
}

func (m *Memory) Fill(_ context.Context, accountID string, version int64) error {
	m.set(accountID, version)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, accountID string, current int64) error {
	m.set(accountID, current)
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) set(accountID string, version int64) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[accountID]; ok && now.Before(e.expiresAt) && e.version > version {
		return
	}
	m.entries[accountID] = entry{version: version, expiresAt: now.Add(m.ttl)}
}
