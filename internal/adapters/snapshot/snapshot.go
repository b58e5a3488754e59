// Package snapshot persists last-good upstream payloads so a restart can
// serve real data before the first fetch completes.
package snapshot

import (
	"context"
	"errors"
	"sync"
)

// KeyPrefix namespaces every snapshot key.
const KeyPrefix = "canmnt:snapshot:"

// ErrNotFound is returned by Load when no snapshot exists.
var ErrNotFound = errors.New("snapshot not found")

// Store saves and loads opaque snapshot payloads by name.
type Store interface {
	Save(ctx context.Context, name string, payload []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
	Close() error
}

// Key returns the namespaced key for a snapshot name.
func Key(name string) string { return KeyPrefix + name }

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, name string, payload []byte) error {
	cp := append([]byte(nil), payload...)
	m.mu.Lock()
	m.data[Key(name)] = cp
	m.mu.Unlock()
	return nil
}

// Load implements Store.
func (m *Memory) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[Key(name)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
