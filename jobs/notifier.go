package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/pawshaus/pawshaus/internal/booking"
	"github.com/pawshaus/pawshaus/internal/ledger"
)

// Notifier fans booking changes out to the background queue: an accounting
// entry for the money movement, a CRM contact sync, and an email to the
// owner. Enqueue failures are logged and swallowed; the booking change has
// already committed and must not be rolled back by queue trouble.
type Notifier struct {
	client *Client
	logger *slog.Logger
}

// NewNotifier wires the queue client used after booking writes commit.
func NewNotifier(client *Client, logger *slog.Logger) *Notifier {
	return &Notifier{client: client, logger: logger}
}

// ModificationApplied enqueues follow-up work for an applied date change.
func (n *Notifier) ModificationApplied(ctx context.Context, b *booking.Booking, m *booking.Modification) {
	if m.PriceDifference != nil && !m.PriceDifference.IsZero() {
		entryType := ledger.EntryCharge
		amount := *m.PriceDifference
		if amount.IsNegative() {
			entryType = ledger.EntryRefund
			amount = amount.Abs()
		}
		n.enqueueLedgerPost(ctx, b, entryType, amount, "date change on booking "+b.Reference.String())
	}
	n.enqueueCRMSync(ctx, b)
	n.enqueueEmail(ctx, b, "Your boarding dates were updated",
		fmt.Sprintf("Hi %s, %s is now booked from %s to %s.",
			b.OwnerName, b.DogName,
			b.CheckIn.Format("2 Jan 2006"), b.CheckOut.Format("2 Jan 2006")))
}

// BookingCancelled enqueues follow-up work for an applied cancellation.
func (n *Notifier) BookingCancelled(ctx context.Context, b *booking.Booking, m *booking.Modification) {
	if m.RefundAmount != nil && m.RefundAmount.IsPositive() {
		n.enqueueLedgerPost(ctx, b, ledger.EntryRefund, *m.RefundAmount, "cancellation of booking "+b.Reference.String())
	}
	n.enqueueCRMSync(ctx, b)
	n.enqueueEmail(ctx, b, "Your booking was cancelled",
		fmt.Sprintf("Hi %s, the stay for %s starting %s has been cancelled.",
			b.OwnerName, b.DogName, b.CheckIn.Format("2 Jan 2006")))
}

func (n *Notifier) enqueueLedgerPost(ctx context.Context, b *booking.Booking, entryType ledger.EntryType, amount decimal.Decimal, memo string) {
	_, err := n.client.EnqueueLedgerPost(ctx, LedgerPostPayload{
		BookingID:        b.ID,
		BookingReference: b.Reference.String(),
		EntryType:        string(entryType),
		Amount:           amount,
		OccurredAt:       b.UpdatedAt,
		Memo:             memo,
	})
	if err != nil {
		n.logger.Error("enqueue ledger post", slog.Int64("booking_id", b.ID), slog.Any("error", err))
	}
}

func (n *Notifier) enqueueCRMSync(ctx context.Context, b *booking.Booking) {
	_, err := n.client.EnqueueCRMSync(ctx, CRMSyncPayload{
		Email:       b.OwnerEmail,
		Name:        b.OwnerName,
		DogName:     b.DogName,
		LastBooking: b.CheckIn.Format("2006-01-02"),
	})
	if err != nil {
		n.logger.Error("enqueue crm sync", slog.Int64("booking_id", b.ID), slog.Any("error", err))
	}
}

func (n *Notifier) enqueueEmail(ctx context.Context, b *booking.Booking, subject, body string) {
	_, err := n.client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      b.OwnerEmail,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		n.logger.Error("enqueue email", slog.Int64("booking_id", b.ID), slog.Any("error", err))
	}
}
