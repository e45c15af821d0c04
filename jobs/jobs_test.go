package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawshaus/pawshaus/internal/crm"
	"github.com/pawshaus/pawshaus/internal/ledger"
)

type stubPoster struct {
	entries []ledger.Entry
	err     error
}

func (s *stubPoster) PostEntry(ctx context.Context, e ledger.Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

type stubUpserter struct {
	contacts []crm.Contact
	err      error
}

func (s *stubUpserter) UpsertContact(ctx context.Context, c crm.Contact) error {
	if s.err != nil {
		return s.err
	}
	s.contacts = append(s.contacts, c)
	return nil
}

func TestLedgerPostJobHandle(t *testing.T) {
	poster := &stubPoster{}
	job := NewLedgerPostJob(poster, nil, nil)

	task, err := NewLedgerPostTask(LedgerPostPayload{
		BookingID:        42,
		BookingReference: "ref-42",
		EntryType:        "REFUND",
		Amount:           decimal.RequireFromString("250.00"),
		OccurredAt:       time.Date(2026, 9, 19, 0, 0, 0, 0, time.UTC),
		Memo:             "cancellation",
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, poster.entries, 1)
	e := poster.entries[0]
	assert.Equal(t, "ref-42", e.BookingReference)
	assert.Equal(t, ledger.EntryRefund, e.Type)
	assert.Equal(t, "USD", e.Currency)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("250.00")))
}

func TestLedgerPostJobRetriesOnUpstreamError(t *testing.T) {
	boom := errors.New("ledger unavailable")
	job := NewLedgerPostJob(&stubPoster{err: boom}, nil, nil)

	task, err := NewLedgerPostTask(LedgerPostPayload{BookingID: 1, EntryType: "CHARGE"})
	require.NoError(t, err)

	got := job.Handle(context.Background(), task)
	assert.ErrorIs(t, got, boom)
	assert.NotErrorIs(t, got, asynq.SkipRetry)
}

func TestLedgerPostJobDropsMalformedPayload(t *testing.T) {
	job := NewLedgerPostJob(&stubPoster{}, nil, nil)
	task := asynq.NewTask(TaskTypeLedgerPost, []byte("not json"))
	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestCRMSyncJobHandle(t *testing.T) {
	upserter := &stubUpserter{}
	job := NewCRMSyncJob(upserter, nil, nil)

	task, err := NewCRMSyncTask(CRMSyncPayload{
		Email:       "jesse@example.com",
		Name:        "Jesse Okafor",
		DogName:     "Biscuit",
		LastBooking: "2026-10-01",
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, upserter.contacts, 1)
	assert.Equal(t, "jesse@example.com", upserter.contacts[0].Email)
	assert.Equal(t, "Biscuit", upserter.contacts[0].DogName)
}

func TestCRMSyncJobDropsEmptyEmail(t *testing.T) {
	upserter := &stubUpserter{}
	job := NewCRMSyncJob(upserter, nil, nil)

	payload, err := json.Marshal(CRMSyncPayload{Name: "No Email"})
	require.NoError(t, err)
	task := asynq.NewTask(TaskTypeCRMSync, payload)

	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
	assert.Empty(t, upserter.contacts)
}
