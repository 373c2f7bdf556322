// Package notifier delivers the settlement-completion POST to the
// accounting system (spec.md §4.8). It has no direct analogue in the
// teacher repo; grounded on spec.md's own contract.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Client is a stateless HTTP notifier. It never retries on failure —
// failure propagates to the caller of settle_to, which records a 502
// idempotent outcome (spec.md §4.8).
type Client struct {
	ConnectorURL string
	HTTP         *http.Client
}

// NewClient returns a Client whose http.Client has a 30-second timeout;
// that timeout is the only bound on a notifier POST (spec.md §5).
func NewClient(connectorURL string) *Client {
	return &Client{
		ConnectorURL: connectorURL,
		HTTP:         &http.Client{Timeout: 30 * time.Second},
	}
}

// NotifySettlement POSTs {connector_url}/accounts/{id}/settlement with a
// fresh UUIDv4 Idempotency-Key (the engine's own idempotency key guards
// its endpoint, not this downstream one — spec.md §4.6.2). A non-2xx
// response is a notifier failure.
func (c *Client) NotifySettlement(ctx context.Context, accountID uint64, amount uint64) error {
	url := fmt.Sprintf("%s/accounts/%d/settlement", c.ConnectorURL, accountID)
	body := strconv.FormatUint(amount, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return fmt.Errorf("notifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notifier: connector returned %d", resp.StatusCode)
	}
	return nil
}
