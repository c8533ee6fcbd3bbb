package cache

import (
	"context"
	"sync"
	"time"
)

// entry pairs a cached blob with its storage time.
type entry struct {
	data     []byte
	cachedAt time.Time
}

// Memory is a process-local Store backed by a plain map. Entries expire
// lazily: freshness is checked on read and stale entries are dropped then.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory returns an empty in-process cache. A zero ttl disables expiry.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if m.ttl > 0 && m.now().Sub(e.cachedAt) > m.ttl {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}

	return e.data, true, nil
}

func (m *Memory) Set(_ context.Context, key string, data []byte) error {
	blob := make([]byte, len(data))
	copy(blob, data)

	m.mu.Lock()
	m.entries[key] = entry{data: blob, cachedAt: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := int64(len(m.entries))
	m.entries = make(map[string]entry)
	return deleted, nil
}

func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *Memory) Close() error {
	return nil
}
