// Package memstore implements store.AddressStore and store.IdempotencyStore
// in process memory, grounded on src/chainadapter/storage/memory.go's
// MemoryTxStore: a sync.RWMutex-guarded map. AddressStore.Load returns a
// shallow copy of the stored struct (its optional Token pointer is shared,
// never mutated by any caller); IdempotencyStore additionally deep-copies
// its Body byte slice since that field is a mutable buffer.
package memstore

import (
	"context"
	"sync"

	"github.com/yourusername/ethsettle/internal/store"
)

// AddressStore is a sync.RWMutex-guarded map of account id to Addresses.
// Suitable for tests and for single-process deployments that don't need
// the durability redisstore.AddressStore provides.
type AddressStore struct {
	mu   sync.RWMutex
	data map[uint64]store.Addresses
}

func NewAddressStore() *AddressStore {
	return &AddressStore{data: make(map[uint64]store.Addresses)}
}

// Save overwrites the record for each id. Uniqueness of create_account's
// "at most one record per account" invariant is enforced by the
// orchestrator's idempotency layer, not the store.
func (s *AddressStore) Save(ctx context.Context, ids []uint64, records []store.Addresses) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		s.data[id] = records[i]
	}
	return nil
}

// Load returns the Addresses for each id, in order. If any id is absent
// the whole call fails with store.ErrNotFound (spec.md §4.4).
func (s *AddressStore) Load(ctx context.Context, ids []uint64) ([]store.Addresses, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Addresses, len(ids))
	for i, id := range ids {
		rec, ok := s.data[id]
		if !ok {
			return nil, store.ErrNotFound
		}
		out[i] = rec
	}
	return out, nil
}
