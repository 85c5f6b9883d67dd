package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrStorage marks any failure of the underlying store. Callers must
// not assume a partial write is visible after seeing it.
var ErrStorage = errors.New("storage error")

type (
	// KVStore is the persistence contract for the whole application:
	// users, the disease catalog and prediction history all live under
	// namespaced string keys with JSON values. Each write touches
	// exactly one key, last-write-wins.
	KVStore interface {
		Get(ctx context.Context, key string) (json.RawMessage, bool, error)
		Set(ctx context.Context, key string, value any) error
		// GetByPrefix returns the values of all keys under prefix.
		// Emission order is unspecified; ordering is the caller's job.
		GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error)
	}

	MemoryKV struct {
		mu    sync.RWMutex
		table map[string][]byte
	}
)

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{table: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.table[key]
	if !ok {
		return nil, false, nil
	}
	return json.RawMessage(raw), true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: marshal %q: %v", ErrStorage, key, err)
	}
	m.mu.Lock()
	m.table[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) GetByPrefix(_ context.Context, prefix string) ([]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]json.RawMessage, 0)
	for key, raw := range m.table {
		if strings.HasPrefix(key, prefix) {
			result = append(result, json.RawMessage(raw))
		}
	}
	return result, nil
}
