// Package storage is the persistence adapter: a durable mapping from a string
// key to a JSON document. The stores read it once at startup and write the
// full entity set back after every change.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Keys used by the stores.
const (
	UsersKey = "users"
	RoomsKey = "rooms"
)

// Storage is a key → JSON value store.
type Storage interface {
	// Load decodes the value stored under key into dest. It reports false
	// without error when the key has never been written.
	Load(ctx context.Context, key string, dest any) (bool, error)
	// Save encodes value as JSON and stores it under key, replacing any previous value.
	Save(ctx context.Context, key string, value any) error
}

// MemoryStore keeps documents in process memory. Used for tests and
// ephemeral sessions.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore Constructor
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string, dest any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

// Raw returns the encoded document under key.
func (m *MemoryStore) Raw(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[key]
	return raw, ok
}
