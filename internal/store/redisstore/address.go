// Package redisstore backs store.AddressStore and store.IdempotencyStore
// with Redis via github.com/redis/go-redis/v9 — wired from the wider
// example pack (DimaJoyti-go-coffee, GoPolymarket-polygate both pin a
// go-redis/v9 dependency) rather than from the teacher itself, as the
// concrete "networked key-value store" spec.md §4.4 names as the expected
// external backing. See DESIGN.md.
package redisstore

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/ethsettle/internal/store"
)

// AddressStore stores each account's record as a Redis hash under key
// "addr:{id}", with fields "own" and "token" (hex-encoded, "token" absent
// for native settlement).
type AddressStore struct {
	rdb *redis.Client
}

func NewAddressStore(rdb *redis.Client) *AddressStore {
	return &AddressStore{rdb: rdb}
}

func addrKey(id uint64) string {
	return fmt.Sprintf("addr:%d", id)
}

// Save writes every (id, record) pair in a single MULTI/EXEC transaction
// so the batch is applied as one unit (spec.md §4.4); if the transaction
// fails the caller receives an error.
func (s *AddressStore) Save(ctx context.Context, ids []uint64, records []store.Addresses) error {
	pipe := s.rdb.TxPipeline()
	for i, id := range ids {
		fields := map[string]interface{}{
			"own": records[i].Own.Hex(),
		}
		if records[i].Token != nil {
			fields["token"] = records[i].Token.Hex()
		}
		pipe.HSet(ctx, addrKey(id), fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis address save: %w", err)
	}
	return nil
}

// Load fetches each account's hash; if any is empty (key absent) the whole
// call fails with store.ErrNotFound.
func (s *AddressStore) Load(ctx context.Context, ids []uint64) ([]store.Addresses, error) {
	out := make([]store.Addresses, len(ids))
	for i, id := range ids {
		fields, err := s.rdb.HGetAll(ctx, addrKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis address load: %w", err)
		}
		own, ok := fields["own"]
		if !ok {
			return nil, store.ErrNotFound
		}
		rec := store.Addresses{Own: common.HexToAddress(own)}
		if tok, ok := fields["token"]; ok && tok != "" {
			t := common.HexToAddress(tok)
			rec.Token = &t
		}
		out[i] = rec
	}
	return out, nil
}
