package memstore

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ethsettle/internal/store"
)

func TestAddressStoreSaveLoad(t *testing.T) {
	s := NewAddressStore()
	ctx := context.Background()

	tok := common.HexToAddress("0xc92be489639a9c61f517bd3b955840fa19bc9b7c")
	err := s.Save(ctx, []uint64{1, 2}, []store.Addresses{
		{Own: common.HexToAddress("0x2fcd07047c209c46a767f8338cb0b14955826826")},
		{Own: common.HexToAddress("0x3cdb3d9e1b74692bb1e3bb5fc81938151ca64b02"), Token: &tok},
	})
	require.NoError(t, err)

	loaded, err := s.Load(ctx, []uint64{2, 1})
	require.NoError(t, err)
	assert.Equal(t, tok, *loaded[0].Token)
	assert.Nil(t, loaded[1].Token)
}

func TestAddressStoreLoadMissing(t *testing.T) {
	s := NewAddressStore()
	_, err := s.Load(context.Background(), []uint64{42})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestIdempotencyStoreRoundTrip(t *testing.T) {
	s := NewIdempotencyStore()
	ctx := context.Background()

	rec, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)

	want := store.IdempotencyRecord{Status: 201, Body: []byte("CREATED")}
	want.InputHash[0] = 0xAB
	require.NoError(t, s.Save(ctx, "k1", want))

	got, err := s.Load(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	// Mutating the returned record must not affect the stored copy.
	got.Body[0] = 'X'
	got2, _ := s.Load(ctx, "k1")
	assert.Equal(t, byte('C'), got2.Body[0])
}
