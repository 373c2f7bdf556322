package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// erc20TransferSelector is the first 4 bytes of keccak256("transfer(address,uint256)").
var erc20TransferSelector = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

// Builder produces an unsigned native or ERC-20 transfer transaction. It is
// a pure function of its inputs plus its configured defaults: it never
// reads chain state itself (the nonce is supplied by the caller).
type Builder struct {
	NativeGasLimit uint64
	ERC20GasLimit  uint64
	GasPrice       *big.Int
}

// NewBuilder returns a Builder with the defaults spec.md §4.1 hard-codes:
// gas_limit 21000/70000, gas_price 20000.
func NewBuilder() *Builder {
	return &Builder{
		NativeGasLimit: 21000,
		ERC20GasLimit:  70000,
		GasPrice:       big.NewInt(20000),
	}
}

// Build constructs an unsigned legacy transaction. If token is non-nil the
// result is an ERC-20 transfer to that contract; otherwise it is a native
// value transfer to `to`.
func (b *Builder) Build(to common.Address, amount *big.Int, nonce uint64, token *common.Address) (*types.Transaction, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, NewParseError("amount must be non-negative", nil)
	}

	if token == nil {
		return types.NewTransaction(nonce, to, amount, b.NativeGasLimit, b.GasPrice, nil), nil
	}

	data := erc20TransferData(to, amount)
	return types.NewTransaction(nonce, *token, big.NewInt(0), b.ERC20GasLimit, b.GasPrice, data), nil
}

// erc20TransferData encodes `transfer(address,uint256)` call data:
// selector ‖ pad32(to) ‖ u256be(amount).
func erc20TransferData(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+32+32)
	data = append(data, erc20TransferSelector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}
