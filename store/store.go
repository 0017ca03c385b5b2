// Package store is the key-value blob persistence used for the closed-trade
// log and user preferences.
package store

import (
	"encoding/json"
	"fmt"
	"sync"
)

const (
	KeyHistory     = "history"
	KeyPreferences = "preferences"
)

// BlobStore loads and saves opaque values by key. Load reports ok=false for
// a missing key.
type BlobStore interface {
	Load(key string) (data []byte, ok bool, err error)
	Save(key string, data []byte) error
	Remove(key string) error
}

// LoadJSON decodes the value stored under key into v.
func LoadJSON(bs BlobStore, key string, v any) (bool, error) {
	data, ok, err := bs.Load(key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func SaveJSON(bs BlobStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return bs.Save(key, data)
}

// Memory is an in-process BlobStore.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Load(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (m *Memory) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}
