package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/pawshaus/pawshaus/internal/jobs"
	"github.com/pawshaus/pawshaus/internal/ledger"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LedgerPoster posts one accounting entry. Satisfied by *ledger.Client.
type LedgerPoster interface {
	PostEntry(ctx context.Context, e ledger.Entry) error
}

// LedgerPostJob forwards booking revenue events to the accounting ledger.
type LedgerPostJob struct {
	Ledger   LedgerPoster
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Currency string
}

// NewLedgerPostJob wires dependencies for the ledger-post handler.
func NewLedgerPostJob(client LedgerPoster, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerPostJob {
	return &LedgerPostJob{Ledger: client, Logger: logger, Metrics: metrics, Currency: "USD"}
}

func (j *LedgerPostJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LedgerPostJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// Handle processes TaskTypeLedgerPost tasks. Failures are returned so Asynq
// retries with backoff; malformed payloads are dropped.
func (j *LedgerPostJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Ledger == nil {
		return errors.New("ledger post: handler not configured")
	}
	var payload LedgerPostPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeLedgerPost)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	entry := ledger.Entry{
		BookingReference: payload.BookingReference,
		Type:             ledger.EntryType(payload.EntryType),
		Amount:           payload.Amount,
		Currency:         j.Currency,
		OccurredAt:       payload.OccurredAt,
		Memo:             payload.Memo,
	}
	if err := j.Ledger.PostEntry(ctx, entry); err != nil {
		resultErr = err
		j.logger().Error("post ledger entry",
			slog.Int64("booking_id", payload.BookingID),
			slog.String("entry_type", payload.EntryType),
			slog.Any("error", err))
		return resultErr
	}

	j.logger().Info("posted ledger entry",
		slog.Int64("booking_id", payload.BookingID),
		slog.String("entry_type", payload.EntryType),
		slog.String("amount", payload.Amount.String()))
	return nil
}
