// Package ledger posts booking revenue events to the external accounting
// ledger. The client is plain dependency-injected state: callers construct it
// with NewClient and pass it where it is needed.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger entry.
type EntryType string

const (
	EntryCharge EntryType = "CHARGE"
	EntryRefund EntryType = "REFUND"
)

// Entry is one accounting event derived from a booking change.
type Entry struct {
	BookingReference string          `json:"booking_reference"`
	Type             EntryType       `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	OccurredAt       time.Time       `json:"occurred_at"`
	Memo             string          `json:"memo,omitempty"`
}

// Client talks to the accounting ledger HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

// NewClient builds a ledger client. Pass nil for hc to use a client with a
// 10s timeout.
func NewClient(baseURL, apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, hc: hc}
}

// PostEntry submits a single entry. Non-2xx responses are returned as errors
// carrying the upstream status and message so the job queue can retry.
func (c *Client) PostEntry(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/entries", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ledger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("post ledger entry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var upstream struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(msg, &upstream)
		if upstream.Message != "" {
			return fmt.Errorf("ledger rejected entry: %s (status=%d)", upstream.Message, resp.StatusCode)
		}
		return fmt.Errorf("ledger rejected entry (status=%d)", resp.StatusCode)
	}
	return nil
}
