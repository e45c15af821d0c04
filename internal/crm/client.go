// Package crm syncs owner contact details to the external CRM after booking
// changes. Best-effort: callers run it from background jobs, never inline in
// a request.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Contact is the CRM's view of a dog owner.
type Contact struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	DogName     string `json:"dog_name,omitempty"`
	LastBooking string `json:"last_booking,omitempty"`
}

// Client talks to the CRM contact API.
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

func NewClient(baseURL, apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, hc: hc}
}

// UpsertContact creates or updates a contact keyed on email.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) error {
	body, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("marshal crm contact: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/v1/contacts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("upsert crm contact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("crm rejected contact (status=%d)", resp.StatusCode)
	}
	return nil
}
