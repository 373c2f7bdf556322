// Package store defines the two capability interfaces the orchestrator
// depends on: a bidirectional account-id/address map, and a durable
// idempotency-key/outcome map. Concrete backings are external collaborators
// (spec.md §1) — the engine depends only on these narrow interfaces,
// grounded on src/chainadapter/storage/store.go's TransactionStateStore
// shape (see DESIGN.md).
package store

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNotFound is returned by Load when one or more requested account ids
// have no record.
var ErrNotFound = errors.New("account not found")

// Addresses is the record held for one account: the peer's own on-chain
// address, and an optional ERC-20 contract address.
type Addresses struct {
	Own   common.Address
	Token *common.Address
}

// AddressStore maps local account ids to Addresses. Save and Load are
// bulk, all-or-nothing operations (spec.md §4.4): Save either stores every
// record or none; Load fails if any requested id is absent.
type AddressStore interface {
	Save(ctx context.Context, ids []uint64, records []Addresses) error
	Load(ctx context.Context, ids []uint64) ([]Addresses, error)
}

// IdempotencyRecord is the terminal outcome stored for one idempotency
// key: the fingerprint of the request that produced it, and the response
// that was sent.
type IdempotencyRecord struct {
	InputHash [32]byte
	Status    int
	Body      []byte
}

// IdempotencyStore maps idempotency keys to their terminal outcome.
// Load returns (nil, nil) for an absent key — absence is not an error
// (spec.md §4.5). Save is allowed to be fire-and-forget from the caller's
// perspective; implementations need not offer compare-and-set (spec.md
// §5's ordering-guarantees note).
type IdempotencyStore interface {
	Load(ctx context.Context, key string) (*IdempotencyRecord, error)
	Save(ctx context.Context, key string, rec IdempotencyRecord) error
}
