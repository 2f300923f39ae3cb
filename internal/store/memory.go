package store

import (
	"context"
	"sync"
)

// Memory is an in-process Reader backed by a map. It stands in for
// Redis in tests and in SDK-less local runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Set stores raw JSON under key.
func (m *Memory) Set(key string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
}

// SetString is a convenience wrapper for literal JSON payloads.
func (m *Memory) SetString(key, raw string) {
	m.Set(key, []byte(raw))
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return raw, nil
}
