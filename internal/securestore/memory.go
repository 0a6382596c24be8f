package securestore

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/photoseal/internal/common"
)

// MemStore is an in-memory Store used in tests and as a stand-in for a
// hardware keystore in environments without one.
type MemStore struct {
	mu     sync.RWMutex
	values map[string][]byte

	// FailGets and FailPuts make the store simulate an unreachable
	// keystore, for exercising error paths.
	FailGets bool
	FailPuts bool
}

func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string][]byte)}
}

func (m *MemStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailGets {
		return nil, ErrStoreUnavailable
	}

	v, ok := m.values[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPuts {
		return ErrStoreUnavailable
	}

	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	return nil
}
