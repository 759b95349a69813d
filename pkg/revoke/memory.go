package revoke

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. It is meant for tests and single-node
// development setups; entries are lost on restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{entries: make(map[string]time.Time), now: now}
}

func (m *Memory) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.entries[jti]; ok && cur.After(expiresAt) {
		return nil
	}
	m.entries[jti] = expiresAt
	return nil
}

func (m *Memory) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	exp, ok := m.entries[jti]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return m.now().Before(exp), nil
}

// Sweep drops entries whose tokens have expired and returns how many went.
func (m *Memory) Sweep(_ context.Context) (int64, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for jti, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, jti)
			n++
		}
	}
	return n, nil
}

// Len reports the number of entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
