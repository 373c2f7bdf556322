package redisstore

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/ethsettle/internal/store"
)

// IdempotencyStore stores each terminal outcome as a JSON blob under key
// "idem:{key}", written with SetNX so the first writer for a given key
// wins — the closest approximation go-redis offers to the compare-and-set
// save spec.md §5 mentions as optional strengthening, without requiring a
// Lua script or WATCH/MULTI transaction for what the spec treats as a
// best-effort write.
type IdempotencyStore struct {
	rdb *redis.Client
}

func NewIdempotencyStore(rdb *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb}
}

func idemKey(key string) string {
	return "idem:" + key
}

type wireRecord struct {
	InputHash string `json:"input_hash"`
	Status    int    `json:"status"`
	Body      string `json:"body"`
}

func (s *IdempotencyStore) Load(ctx context.Context, key string) (*store.IdempotencyRecord, error) {
	raw, err := s.rdb.Get(ctx, idemKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis idempotency load: %w", err)
	}

	var w wireRecord
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("redis idempotency load: corrupt record: %w", err)
	}
	rec := store.IdempotencyRecord{Status: w.Status}
	hashBytes, err := hex.DecodeString(w.InputHash)
	if err != nil || len(hashBytes) != 32 {
		return nil, fmt.Errorf("redis idempotency load: corrupt input hash")
	}
	copy(rec.InputHash[:], hashBytes)
	rec.Body, err = hex.DecodeString(w.Body)
	if err != nil {
		return nil, fmt.Errorf("redis idempotency load: corrupt body")
	}
	return &rec, nil
}

// Save reports its error to the caller, but the orchestrator only logs it
// and still returns the already-computed response (spec.md §4.5: the
// idempotency record is allowed to be eventual, not a precondition for
// responding).
func (s *IdempotencyStore) Save(ctx context.Context, key string, rec store.IdempotencyRecord) error {
	w := wireRecord{
		InputHash: hex.EncodeToString(rec.InputHash[:]),
		Status:    rec.Status,
		Body:      hex.EncodeToString(rec.Body),
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("redis idempotency save: %w", err)
	}
	if err := s.rdb.SetNX(ctx, idemKey(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis idempotency save: %w", err)
	}
	return nil
}
