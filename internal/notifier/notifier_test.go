package notifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httpHandler(gotPath, gotIdemKey, gotContentType, gotBody *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*gotPath = r.URL.Path
		*gotIdemKey = r.Header.Get("Idempotency-Key")
		*gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		*gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}
}

func failingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func TestNotifySettlement(t *testing.T) {
	var gotPath, gotIdemKey, gotContentType, gotBody string
	srv := httptest.NewServer(httpHandler(&gotPath, &gotIdemKey, &gotContentType, &gotBody))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.NotifySettlement(context.Background(), 7, 100)
	require.NoError(t, err)

	assert.Equal(t, "/accounts/7/settlement", gotPath)
	assert.Equal(t, "application/octet-stream", gotContentType)
	assert.Equal(t, "100", gotBody)
	assert.NotEmpty(t, gotIdemKey)
}

func TestNotifySettlementFailure(t *testing.T) {
	srv := httptest.NewServer(failingHandler())
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.NotifySettlement(context.Background(), 7, 100)
	require.Error(t, err)
}
