// Package engine implements the settlement control plane: the idempotent
// request state machine, transaction construction and signing, and the
// chain-client/notifier operations it drives.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/yourusername/ethsettle/internal/store"
)

// Notifier delivers a settlement-completion POST to the accounting system
// (spec.md §4.8). Defined here, not in a separate notifier package import,
// to keep the orchestrator decoupled from the HTTP client implementation —
// the concrete notifier.Client satisfies this interface.
type Notifier interface {
	NotifySettlement(ctx context.Context, accountID uint64, amount uint64) error
}

// Config is the subset of engine configuration the orchestrator needs at
// call time (spec.md §6's "Engine configuration" parameters).
type Config struct {
	ChainID        *big.Int
	Confirmations  uint64
	PollFrequency  time.Duration
}

// Orchestrator is the settlement control plane: the seven-state idempotent
// operation (spec.md §4.6) wiring the Address Store, Idempotency Store,
// Builder, Signer, Chain Client, and Notifier. It is the coordinating type
// the teacher's internal/services/chainadapter/service.go models — one
// small struct holding capability interfaces, no inheritance.
type Orchestrator struct {
	Addresses   store.AddressStore
	Idempotency store.IdempotencyStore
	Builder     *Builder
	Signer      Signer
	Chain       ChainClient
	Notify      Notifier
	Config      Config
	Log         *slog.Logger
	Metrics     *Metrics
}

type lookupOutcome int

const (
	lookupWork lookupOutcome = iota
	lookupReplay
	lookupConflict
)

// work is the endpoint-specific body of the seven-state pattern: closing
// over the account id and the parsed request body (or its parse error),
// perform the operation and return the HTTP status/body it terminates
// with, or an *Error.
type work func(ctx context.Context) (status int, body []byte, err error)

// runIdempotent implements spec.md §4.6's state diagram exactly once,
// parameterized by the WORK closure — the "higher-order idempotent
// operation" spec.md §9 prescribes instead of duplicating the pattern
// across create_account/send_money/receive_message.
func (o *Orchestrator) runIdempotent(ctx context.Context, accountID uint64, rawBody []byte, idemKey string, w work) (status int, body []byte) {
	inputHash := hashInput(accountID, rawBody)

	if idemKey != "" {
		rec, err := o.Idempotency.Load(ctx, idemKey)
		if err != nil {
			lookupErr := NewIdempotencyStoreError(fmt.Sprintf("failed to look up idempotency key %q", idemKey), err)
			status, body = lookupErr.Kind.HTTPStatus(), []byte(lookupErr.Message)
			o.Metrics.recordOutcome(status)
			return status, body
		}
		if rec != nil {
			if rec.InputHash != inputHash {
				o.Metrics.recordLookup(lookupConflict)
				conflictErr := NewConflictError("Provided idempotency key is tied to other input")
				status, body = conflictErr.Kind.HTTPStatus(), []byte(conflictErr.Message)
				o.Metrics.recordOutcome(status)
				return status, body
			}
			o.Metrics.recordLookup(lookupReplay)
			o.Metrics.recordOutcome(rec.Status)
			return rec.Status, rec.Body
		}
	}

	o.Metrics.recordLookup(lookupWork)
	status, body, werr := w(ctx)
	if werr != nil {
		var eng *Error
		if asErr(werr, &eng) {
			status = eng.Kind.HTTPStatus()
			body = []byte(eng.Message)
		} else {
			status = 500
			body = []byte(werr.Error())
		}
	}

	if idemKey != "" {
		if err := o.Idempotency.Save(ctx, idemKey, store.IdempotencyRecord{
			InputHash: inputHash,
			Status:    status,
			Body:      body,
		}); err != nil {
			o.Log.Warn("failed to record idempotency outcome", "key", idemKey, "error", err)
		}
	}

	o.Metrics.recordOutcome(status)
	return status, body
}

func asErr(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}

// hashInput computes the SHA-256 fingerprint of (account_id, body) per the
// design note in spec.md §9: a canonical-JSON rendering of the body rather
// than the reference's debug-serialization, so the hash doesn't couple to
// one language's struct-formatting. Field order for every body type in
// this engine is fixed by the struct definitions in createAccountBody /
// settlementBody / messageBody below, canonicalized via a re-marshal
// through a struct with those fields in that order. A body that does not
// parse is hashed as received.
func hashInput(accountID uint64, canonicalBody []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(strconv.FormatUint(accountID, 10)))
	h.Write(canonicalBody)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// --- create_account (spec.md §4.6.1) ---

type createAccountBody struct {
	OwnAddress   string  `json:"own_address"`
	TokenAddress *string `json:"token_address"`
}

func canonicalCreateAccountBody(raw []byte) ([]byte, *createAccountBody, error) {
	var b createAccountBody
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, nil, err
	}
	canon, err := json.Marshal(struct {
		OwnAddress   string  `json:"own_address"`
		TokenAddress *string `json:"token_address"`
	}{b.OwnAddress, b.TokenAddress})
	return canon, &b, err
}

// CreateAccount handles POST /accounts/{id}.
func (o *Orchestrator) CreateAccount(ctx context.Context, accountID uint64, rawBody []byte, idemKey string) (int, []byte) {
	canon, parsed, perr := canonicalCreateAccountBody(rawBody)
	if perr != nil {
		canon = rawBody
	}

	return o.runIdempotent(ctx, accountID, canon, idemKey, func(ctx context.Context) (int, []byte, error) {
		if perr != nil {
			return 0, nil, NewParseError("Unable to parse message body", perr)
		}

		addr := store.Addresses{Own: common.HexToAddress(parsed.OwnAddress)}
		if parsed.TokenAddress != nil && *parsed.TokenAddress != "" {
			t := common.HexToAddress(*parsed.TokenAddress)
			addr.Token = &t
		}

		if err := o.Addresses.Save(ctx, []uint64{accountID}, []store.Addresses{addr}); err != nil {
			return 0, nil, NewStoreError(fmt.Sprintf("failed to save account: %v", err), err)
		}

		return 201, []byte("CREATED"), nil
	})
}

// --- send_money (spec.md §4.6.2) ---

type settlementBody struct {
	Amount uint64 `json:"amount"`
}

func canonicalSettlementBody(raw []byte) ([]byte, *settlementBody, error) {
	var b settlementBody
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, nil, err
	}
	canon, err := json.Marshal(struct {
		Amount uint64 `json:"amount"`
	}{b.Amount})
	return canon, &b, err
}

// SendMoney handles POST /accounts/{id}/settlement.
func (o *Orchestrator) SendMoney(ctx context.Context, accountID uint64, rawBody []byte, idemKey string) (int, []byte) {
	canon, parsed, perr := canonicalSettlementBody(rawBody)
	if perr != nil {
		canon = rawBody
	}

	return o.runIdempotent(ctx, accountID, canon, idemKey, func(ctx context.Context) (int, []byte, error) {
		if perr != nil {
			return 0, nil, NewParseError("Unable to parse message body", perr)
		}

		addrs, err := o.loadAccountAddresses(ctx, accountID)
		if err != nil {
			return 0, nil, err
		}

		if err := o.settleTo(ctx, addrs, accountID, parsed.Amount); err != nil {
			return 0, nil, NewChainUnavailableError("Error connecting to the blockchain.", err)
		}

		return 200, []byte("OK"), nil
	})
}

func (o *Orchestrator) loadAccountAddresses(ctx context.Context, accountID uint64) (store.Addresses, error) {
	recs, err := o.Addresses.Load(ctx, []uint64{accountID})
	if err != nil {
		return store.Addresses{}, NewStoreError(fmt.Sprintf("Error loading account %d", accountID), err)
	}
	return recs[0], nil
}

// settleTo performs the chain-side settlement: nonce → build → sign →
// broadcast-and-await → notify. The nonce-to-broadcast span runs under the
// chain client's per-signer lock (spec.md §5).
func (o *Orchestrator) settleTo(ctx context.Context, addrs store.Addresses, accountID uint64, amount uint64) error {
	amt := new(big.Int).SetUint64(amount)

	signed, err := o.Chain.WithNonceLock(ctx, o.Signer.Address(), func(nonce uint64) (*types.Transaction, error) {
		unsigned, err := o.Builder.Build(addrs.Own, amt, nonce, addrs.Token)
		if err != nil {
			return nil, err
		}
		return o.Signer.Sign(unsigned, o.Config.ChainID)
	})
	if err != nil {
		return err
	}

	if _, err := o.Chain.SendRawAndAwait(ctx, signed, o.Config.PollFrequency, o.Config.Confirmations); err != nil {
		return err
	}

	if err := o.Notify.NotifySettlement(ctx, accountID, amount); err != nil {
		return err
	}

	return nil
}

// --- receive_message (spec.md §4.6.3) ---

type msgType int

const (
	msgConfig msgType = iota
	msgPaymentChannelOpen
	msgPaymentChannelPay
	msgPaymentChannelClose
)

type messageBody struct {
	MsgType msgType         `json:"msg_type"`
	Data    json.RawMessage `json:"data"`
}

// ReceiveMessage handles POST /accounts/{id}/messages. Per DESIGN.md open
// question 2, the body is parsed and dispatched by msg_type to a no-op
// handler — this core does not act on any message type yet.
func (o *Orchestrator) ReceiveMessage(ctx context.Context, accountID uint64, rawBody []byte, idemKey string) (int, []byte) {
	var msg messageBody
	perr := json.Unmarshal(rawBody, &msg)
	canon := rawBody
	if perr == nil {
		if c, err := json.Marshal(msg); err == nil {
			canon = c
		}
	}

	return o.runIdempotent(ctx, accountID, canon, idemKey, func(ctx context.Context) (int, []byte, error) {
		if perr != nil {
			return 0, nil, NewParseError("Unable to parse message body", perr)
		}

		if _, err := o.loadAccountAddresses(ctx, accountID); err != nil {
			return 0, nil, err
		}

		o.dispatchMessage(msg)

		return 200, []byte("OK"), nil
	})
}

func (o *Orchestrator) dispatchMessage(msg messageBody) {
	switch msg.MsgType {
	case msgConfig:
		o.Log.Debug("received config message", "data", string(msg.Data))
	case msgPaymentChannelOpen:
		o.Log.Debug("received payment-channel-open message", "data", string(msg.Data))
	case msgPaymentChannelPay:
		o.Log.Debug("received payment-channel-pay message", "data", string(msg.Data))
	case msgPaymentChannelClose:
		o.Log.Debug("received payment-channel-close message", "data", string(msg.Data))
	default:
		o.Log.Debug("received unknown message type", "msg_type", msg.MsgType)
	}
}

// --- get_account (SPEC_FULL §4.6.4, supplementing the distilled spec) ---

// GetAccount handles GET /accounts/{id}. It is a pure read, not gated by
// idempotency.
func (o *Orchestrator) GetAccount(ctx context.Context, accountID uint64) (int, []byte) {
	addrs, err := o.loadAccountAddresses(ctx, accountID)
	if err != nil {
		var eng *Error
		if asErr(err, &eng) {
			return eng.Kind.HTTPStatus(), []byte(eng.Message)
		}
		return 500, []byte(err.Error())
	}

	resp := struct {
		OwnAddress   string  `json:"own_address"`
		TokenAddress *string `json:"token_address"`
	}{OwnAddress: "0x" + common.Bytes2Hex(addrs.Own.Bytes())}
	if addrs.Token != nil {
		t := "0x" + common.Bytes2Hex(addrs.Token.Bytes())
		resp.TokenAddress = &t
	}

	body, _ := json.Marshal(resp)
	return 200, body
}
