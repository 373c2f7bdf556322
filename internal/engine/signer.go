package engine

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is the engine's signing capability: derive an address, and
// produce an EIP-155-signed transaction for a given chain id. This is a
// capability set, not a class hierarchy (spec.md §9) — an HSM or remote KMS
// implementation may replace LocalSigner without changing any other
// component.
type Signer interface {
	// Sign returns tx signed per EIP-155 for chainID. The unsigned tx
	// passed in is never mutated; the returned transaction is a new value.
	Sign(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)

	// Address returns the 20-byte address this signer controls: the last
	// 20 bytes of keccak256 of the uncompressed public key, minus its
	// prefix byte.
	Address() common.Address
}

// LocalSigner holds a secp256k1 private key in memory. It is the only
// concrete Signer this core ships, matching the "one signing key per engine
// instance" Non-goal (spec.md §1).
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocalSigner builds a signer from a raw 32-byte secret key.
func NewLocalSigner(secret []byte) (*LocalSigner, error) {
	key, err := crypto.ToECDSA(secret)
	if err != nil {
		return nil, NewParseError("invalid signing key", err)
	}
	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// NewLocalSignerFromHex builds a signer from a hex-encoded secret key, with
// or without the "0x" prefix.
func NewLocalSignerFromHex(hexKey string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(hexKey))
	if err != nil {
		return nil, NewParseError("invalid signing key", err)
	}
	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func (s *LocalSigner) Address() common.Address {
	return s.address
}

// Sign delegates EIP-155 signing and the v = chainID*2+35+recoveryID
// adjustment to go-ethereum's own signer rather than hand-patching the
// recovery byte, since the library already implements this correctly (see
// DESIGN.md).
func (s *LocalSigner) Sign(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signer := types.NewEIP155Signer(chainID)
	signed, err := types.SignTx(tx, signer, s.key)
	if err != nil {
		return nil, NewChainUnavailableError("failed to sign transaction", err)
	}
	return signed, nil
}
