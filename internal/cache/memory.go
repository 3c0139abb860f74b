package cache

import (
	"context"
	"sync"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
)

// Memory is an in-process Store for tests and single-instance development.
// It stores the serialized payload rather than the items themselves so the
// JSON round-trip (and its corruption handling) is exercised the same way
// as in production.
type Memory struct {
	mu      sync.Mutex
	payload []byte
	present bool
}

// NewMemory creates an empty in-memory cart cache.
func NewMemory() *Memory {
	return &Memory{}
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context) ([]model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return nil, ErrCacheMiss
	}
	items, err := decodeItems(m.payload)
	if err != nil {
		// Corrupt entry: discard it so the next read is a clean miss.
		m.payload, m.present = nil, false
		return nil, ErrCacheMiss
	}
	return items, nil
}

// Put implements Store.
func (m *Memory) Put(ctx context.Context, items []model.CartItem) error {
	data, err := encodeItems(items)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload, m.present = data, true
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload, m.present = nil, false
	return nil
}

// Corrupt overwrites the stored payload with unparseable bytes. Test hook.
func (m *Memory) Corrupt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload, m.present = []byte("{not json"), true
}
