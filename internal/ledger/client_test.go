package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostEntry(t *testing.T) {
	var got Entry
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/entries", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", srv.Client())
	err := c.PostEntry(context.Background(), Entry{
		BookingReference: "b-42",
		Type:             EntryRefund,
		Amount:           decimal.RequireFromString("250.00"),
		Currency:         "USD",
		OccurredAt:       time.Date(2026, 9, 19, 12, 0, 0, 0, time.UTC),
		Memo:             "cancellation refund",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-key", auth)
	assert.Equal(t, "b-42", got.BookingReference)
	assert.Equal(t, EntryRefund, got.Type)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("250.00")))
}

func TestPostEntryUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"unknown account"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", srv.Client())
	err := c.PostEntry(context.Background(), Entry{BookingReference: "b-1", Type: EntryCharge})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown account")
	assert.Contains(t, err.Error(), "422")
}

func TestPostEntryContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, "secret-key", srv.Client())
	err := c.PostEntry(ctx, Entry{BookingReference: "b-1", Type: EntryCharge})
	assert.Error(t, err)
}
