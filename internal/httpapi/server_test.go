package httpapi

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ethsettle/internal/engine"
	"github.com/yourusername/ethsettle/internal/store/memstore"
)

type noopNotifier struct{}

func (noopNotifier) NotifySettlement(ctx context.Context, accountID uint64, amount uint64) error {
	return nil
}

func newTestServer(t *testing.T) *Server {
	signer, err := engine.NewLocalSignerFromHex("acb8f4184aaf6490b6e6aea7b474225be0d965eed75f4b91183eff6032c299f8")
	require.NoError(t, err)

	orch := &engine.Orchestrator{
		Addresses:   memstore.NewAddressStore(),
		Idempotency: memstore.NewIdempotencyStore(),
		Builder:     engine.NewBuilder(),
		Signer:      signer,
		Notify:      noopNotifier{},
		Config:      engine.Config{ChainID: big.NewInt(1)},
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:     &engine.Metrics{},
	}
	return NewServer(orch, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateAccountEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/accounts/0",
		strings.NewReader(`{"own_address":"0x2fcd07047c209c46a767f8338cb0b14955826826","token_address":null}`))
	req.Header.Set("Idempotency-Key", "AJKJNUjM0oyiAN46")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "CREATED", rec.Body.String())
}

func TestGetAccountEndpointNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/accounts/7", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestCreateAccountEndpointBadAccountID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/accounts/not-a-number", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, "Unable to parse account", rec.Body.String())
}

func TestReceiveMessageEndpoint(t *testing.T) {
	s := newTestServer(t)

	create := httptest.NewRequest(http.MethodPost, "/accounts/3",
		strings.NewReader(`{"own_address":"0x2fcd07047c209c46a767f8338cb0b14955826826"}`))
	s.ServeHTTP(httptest.NewRecorder(), create)

	req := httptest.NewRequest(http.MethodPost, "/accounts/3/messages",
		strings.NewReader(`{"msg_type":0,"data":{}}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
