package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryEngine implements Engine using in-memory storage. Expired items are
// dropped lazily when they are read.
type MemoryEngine struct {
	items  map[string]memoryItem
	mutex  sync.RWMutex
	now    func() time.Time
	closed bool
}

type memoryItem struct {
	value      string
	expiration time.Time
}

// MemoryOption configures a MemoryEngine
type MemoryOption func(*MemoryEngine)

// WithMemoryClock overrides the clock used for lifetime checks
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryEngine) {
		m.now = now
	}
}

// NewMemoryEngine creates a new memory storage engine
func NewMemoryEngine(opts ...MemoryOption) *MemoryEngine {
	m := &MemoryEngine{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get retrieves an item from memory
func (m *MemoryEngine) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return "", false, ErrNotConnected
	}

	item, found := m.items[key]
	if !found {
		return "", false, nil
	}

	if !item.expiration.IsZero() && m.now().After(item.expiration) {
		delete(m.items, key)
		return "", false, nil
	}

	return item.value, true, nil
}

// Set stores an item in memory
func (m *MemoryEngine) Set(_ context.Context, key, value string, lifetime time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return ErrNotConnected
	}

	var exp time.Time
	if lifetime > 0 {
		exp = m.now().Add(lifetime)
	}

	m.items[key] = memoryItem{
		value:      value,
		expiration: exp,
	}
	return nil
}

// Delete removes an item from memory
func (m *MemoryEngine) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return ErrNotConnected
	}

	delete(m.items, key)
	return nil
}

// Close drops every item and rejects further use
func (m *MemoryEngine) Close(_ context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.items = make(map[string]memoryItem)
	m.closed = true
	return nil
}

// Len returns the number of stored items, expired or not
func (m *MemoryEngine) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.items)
}
