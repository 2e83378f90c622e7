package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryManager implements Manager for tests and single-process deployments.
// Leases expire lazily: an expired entry is treated as free on the next
// Acquire.
type MemoryManager struct {
	mu    sync.Mutex
	locks map[string]time.Time // key -> lease expiry
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{locks: make(map[string]time.Time)}
}

func (m *MemoryManager) Acquire(_ context.Context, key string, lease time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, held := m.locks[key]
	if held && time.Now().Before(expiry) {
		return false, nil
	}

	m.locks[key] = time.Now().Add(lease)

	return true, nil
}

func (m *MemoryManager) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.locks[key]; !held {
		return ErrNotHeld
	}

	delete(m.locks, key)

	return nil
}

var _ Manager = (*MemoryManager)(nil)
