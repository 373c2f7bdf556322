package engine

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Receipt is the engine's notion of a mined transaction (spec.md §3).
type Receipt struct {
	TxHash      common.Hash
	Status      uint64
	BlockNumber uint64
}

// ChainClient is the engine's view of an Ethereum node: read the next
// nonce under a per-signer lock spanning build-and-broadcast, and await
// the confirmations of a transaction broadcast that way. Implementations may fail any
// operation with a ChainUnavailable *Error. This is the substitution point
// spec.md §4.3 calls out for tests — orchestrator_test.go's fakeChainClient
// is the fake that exercises it.
type ChainClient interface {
	PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error)
	WithNonceLock(ctx context.Context, addr common.Address, build func(nonce uint64) (*types.Transaction, error)) (*types.Transaction, error)
	SendRawAndAwait(ctx context.Context, signed *types.Transaction, pollInterval time.Duration, confirmations uint64) (*Receipt, error)
}

// EthClient wraps go-ethereum's ethclient.Client (the same JSON-RPC surface
// spec.md §6 names: eth_getTransactionCount, eth_sendRawTransaction,
// eth_getTransactionReceipt, eth_blockNumber) rather than a hand-rolled
// RPC codec — see DESIGN.md.
//
// nonceMu is the one mandatory critical section spec.md §5 calls out: it
// must be held across "read nonce → broadcast" for a given signer so that
// concurrent send_money calls produce a contiguous nonce sequence instead
// of colliding on the same pending nonce.
type EthClient struct {
	client  *ethclient.Client
	nonceMu sync.Mutex
}

// NewEthClient dials the node at endpoint.
func NewEthClient(ctx context.Context, endpoint string) (*EthClient, error) {
	c, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, NewChainUnavailableError("failed to connect to ethereum node", err)
	}
	return &EthClient{client: c}, nil
}

func (c *EthClient) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	n, err := c.client.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, NewChainUnavailableError("failed to read pending nonce", err)
	}
	return n, nil
}

// WithNonceLock acquires the per-signer nonce mutex, fetches the pending
// nonce, runs build (which must return a transaction using that nonce,
// already signed), broadcasts it, and releases the lock — holding it for
// exactly the span spec.md §5 requires and no more.
func (c *EthClient) WithNonceLock(ctx context.Context, addr common.Address, build func(nonce uint64) (*types.Transaction, error)) (*types.Transaction, error) {
	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()

	nonce, err := c.PendingNonceAt(ctx, addr)
	if err != nil {
		return nil, err
	}

	signed, err := build(nonce)
	if err != nil {
		return nil, err
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return nil, NewChainUnavailableError("failed to broadcast transaction", err)
	}

	return signed, nil
}

// SendRawAndAwait polls for the receipt of signed (already broadcast by
// WithNonceLock) until it has accumulated `confirmations` blocks.
//
// A transient RPC error during polling is retried indefinitely at
// pollInterval (spec.md §4.3). Loss of the pending tx from the mempool
// surfaces only via ctx's deadline, which the caller (the orchestrator)
// treats as ChainUnavailable — see DESIGN.md open question 1 for why this
// core does not persist (nonce, tx_hash) across that timeout.
func (c *EthClient) SendRawAndAwait(ctx context.Context, signed *types.Transaction, pollInterval time.Duration, confirmations uint64) (*Receipt, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(ctx, signed.Hash())
		if err == nil {
			if receipt.Status == 0 {
				return nil, NewChainUnavailableError("transaction reverted", nil)
			}
			// A failed head-block read is transient too: poll again next tick.
			head, herr := c.client.BlockNumber(ctx)
			if herr == nil && head >= receipt.BlockNumber.Uint64()+confirmations {
				return &Receipt{
					TxHash:      signed.Hash(),
					Status:      receipt.Status,
					BlockNumber: receipt.BlockNumber.Uint64(),
				}, nil
			}
		} else if err != ethereum.NotFound {
			// Transient RPC error: keep polling rather than failing fast.
		}

		select {
		case <-ctx.Done():
			return nil, NewChainUnavailableError("timed out awaiting confirmations", ctx.Err())
		case <-ticker.C:
		}
	}
}
