package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawshaus/pawshaus/internal/pricing"
)

var (
	// ErrNotFound indicates the referenced booking does not exist.
	ErrNotFound = errors.New("booking: not found")
	// ErrConflict indicates a concurrent write beat this one; retryable.
	ErrConflict = errors.New("booking: concurrent update conflict")
)

// Minimum notice for date changes. Cancellation has no floor; its refund
// scales with lead time instead.
const modificationNoticeDays = 7

// Quoter recomputes prices for changed dates. Satisfied by pricing.Engine.
type Quoter interface {
	ComputeQuote(ctx context.Context, req pricing.StayRequest) (*pricing.PriceBreakdown, error)
}

// Repository is the persistence port for bookings and their modification
// ledger.
type Repository interface {
	GetBooking(ctx context.Context, id int64) (*Booking, error)
	ListModifications(ctx context.Context, bookingID int64) ([]Modification, error)
	ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]Booking, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

// TxRepository exposes the writes that must land atomically: the booking
// row update and exactly one ledger insert per applied action.
type TxRepository interface {
	UpdateDatesAndPrices(ctx context.Context, b *Booking, expectedUpdatedAt time.Time) error
	MarkCancelled(ctx context.Context, id int64, reason string, refund decimal.Decimal, at time.Time, expectedUpdatedAt time.Time) error
	InsertModification(ctx context.Context, m *Modification) error
}

// Notifier is told about committed changes so integrations (ledger posting,
// CRM sync) can run in the background. Failures are the notifier's problem;
// the booking write has already committed.
type Notifier interface {
	ModificationApplied(ctx context.Context, b *Booking, m *Modification)
	BookingCancelled(ctx context.Context, b *Booking, m *Modification)
}

// Service is the booking modification engine: eligibility policy, repricing
// via the pricing engine, and the refund table.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	quoter   Quoter
	notifier Notifier
}

// NewService constructs a booking service. notifier may be nil.
func NewService(logger *slog.Logger, repo Repository, quoter Quoter, notifier Notifier) *Service {
	return &Service{logger: logger, repo: repo, quoter: quoter, notifier: notifier}
}

// GetBooking retrieves a booking by ID.
func (s *Service) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// ListModifications returns the booking's append-only modification history,
// oldest first.
func (s *Service) ListModifications(ctx context.Context, bookingID int64) ([]Modification, error) {
	if _, err := s.repo.GetBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.repo.ListModifications(ctx, bookingID)
}

// ============================================================================
// ELIGIBILITY
// ============================================================================

// CheckModificationEligibility decides whether the booking's dates may be
// changed at time now. Date changes need at least 7 days notice before the
// current check-in and a non-terminal booking.
func (s *Service) CheckModificationEligibility(b *Booking, now time.Time) Eligibility {
	switch b.Status {
	case StatusCancelled:
		return Eligibility{Reason: "booking is already cancelled"}
	case StatusCompleted:
		return Eligibility{Reason: "booking is already completed"}
	}
	days := pricing.NightsBetween(now, b.CheckIn)
	if days < modificationNoticeDays {
		return Eligibility{Reason: fmt.Sprintf(
			"date changes require at least %d days notice before check-in; %d day(s) remain",
			modificationNoticeDays, days)}
	}
	return Eligibility{Allowed: true}
}

// CheckCancellationEligibility decides whether the booking may be cancelled
// at time now. Cancellation is allowed up to and including the check-in day;
// the refund bracket, not a notice floor, reflects the lead time.
func (s *Service) CheckCancellationEligibility(b *Booking, now time.Time) Eligibility {
	switch b.Status {
	case StatusCancelled:
		return Eligibility{Reason: "booking is already cancelled"}
	case StatusCompleted:
		return Eligibility{Reason: "booking is already completed"}
	}
	if pricing.NightsBetween(now, b.CheckIn) < 0 {
		return Eligibility{Reason: "check-in date has passed"}
	}
	return Eligibility{Allowed: true}
}

// ============================================================================
// REPRICING
// ============================================================================

// RecalculatePrice reprices the booking against new dates with its stored
// dog and service selections. The difference is signed; positive means the
// customer owes more.
func (s *Service) RecalculatePrice(ctx context.Context, b *Booking, newCheckIn, newCheckOut time.Time) (*Recalculation, error) {
	breakdown, err := s.quoter.ComputeQuote(ctx, b.StayRequest(newCheckIn, newCheckOut))
	if err != nil {
		return nil, err
	}
	return &Recalculation{
		NewPrice:   breakdown.TotalPrice,
		NewPricing: breakdown,
		Difference: breakdown.TotalPrice.Sub(b.TotalPrice),
	}, nil
}

// ============================================================================
// APPLY
// ============================================================================

// ModificationResult is the outcome of a preview or apply call. When the
// eligibility check denies the action, Eligibility carries the reason and
// the remaining fields are nil.
type ModificationResult struct {
	Eligibility   Eligibility      `json:"eligibility"`
	Recalculation *Recalculation   `json:"recalculation,omitempty"`
	Modification  *Modification    `json:"modification,omitempty"`
	Booking       *Booking         `json:"booking,omitempty"`
	Refund        *RefundBreakdown `json:"refund,omitempty"`
}

// PreviewModification reports eligibility and the repriced quote without
// writing anything.
func (s *Service) PreviewModification(ctx context.Context, bookingID int64, newCheckIn, newCheckOut, now time.Time) (*ModificationResult, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	elig := s.CheckModificationEligibility(b, now)
	if !elig.Allowed {
		return &ModificationResult{Eligibility: elig}, nil
	}
	recalc, err := s.RecalculatePrice(ctx, b, newCheckIn, newCheckOut)
	if err != nil {
		return nil, err
	}
	return &ModificationResult{Eligibility: elig, Recalculation: recalc, Booking: b}, nil
}

// ApplyModification changes the booking's dates, overwrites its derived
// price fields, and appends one ledger row — atomically. The second of two
// racing writers observes a conflict instead of silently losing the race.
func (s *Service) ApplyModification(ctx context.Context, bookingID int64, newCheckIn, newCheckOut, now time.Time) (*ModificationResult, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	elig := s.CheckModificationEligibility(b, now)
	if !elig.Allowed {
		return &ModificationResult{Eligibility: elig}, nil
	}
	recalc, err := s.RecalculatePrice(ctx, b, newCheckIn, newCheckOut)
	if err != nil {
		return nil, err
	}

	expectedUpdatedAt := b.UpdatedAt
	newIn := pricing.Midnight(newCheckIn)
	newOut := pricing.Midnight(newCheckOut)

	mod := &Modification{
		ID:               uuid.New(),
		BookingID:        b.ID,
		Kind:             ModificationDateChange,
		OriginalCheckIn:  b.CheckIn,
		OriginalCheckOut: b.CheckOut,
		NewCheckIn:       &newIn,
		NewCheckOut:      &newOut,
		OriginalPrice:    b.TotalPrice,
		NewPrice:         &recalc.NewPrice,
		PriceDifference:  &recalc.Difference,
		Status:           ModificationStatusApplied,
		CreatedAt:        now,
	}

	updated := *b
	updated.CheckIn = newIn
	updated.CheckOut = newOut
	updated.TotalNights = recalc.NewPricing.TotalNights
	updated.BaseRate = recalc.NewPricing.BaseRate
	updated.PeakSurcharge = recalc.NewPricing.PeakSurcharge
	updated.DogSurcharge = recalc.NewPricing.DogSurcharge
	updated.ServiceCharges = recalc.NewPricing.ServiceCharges
	updated.TotalPrice = recalc.NewPricing.TotalPrice
	updated.IsPeakPeriod = recalc.NewPricing.IsPeakPeriod
	updated.PeakPeriodName = recalc.NewPricing.PeakPeriodName
	updated.BalanceAmount = updated.TotalPrice.Sub(updated.DepositAmount)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateDatesAndPrices(ctx, &updated, expectedUpdatedAt); err != nil {
			return err
		}
		return tx.InsertModification(ctx, mod)
	})
	if err != nil {
		return nil, fmt.Errorf("apply date change: %w", err)
	}

	if s.notifier != nil {
		s.notifier.ModificationApplied(ctx, &updated, mod)
	}
	s.logger.Info("booking dates changed",
		"booking_id", b.ID,
		"modification_id", mod.ID,
		"difference", recalc.Difference.String())

	return &ModificationResult{
		Eligibility:   elig,
		Recalculation: recalc,
		Modification:  mod,
		Booking:       &updated,
	}, nil
}

// PreviewCancellation reports eligibility and the refund breakdown without
// writing anything.
func (s *Service) PreviewCancellation(ctx context.Context, bookingID int64, now time.Time) (*ModificationResult, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	elig := s.CheckCancellationEligibility(b, now)
	if !elig.Allowed {
		return &ModificationResult{Eligibility: elig}, nil
	}
	refund := s.CalculateRefund(b, now)
	return &ModificationResult{Eligibility: elig, Refund: &refund, Booking: b}, nil
}

// ApplyCancellation marks the booking cancelled (terminal), records the
// refund, and appends one ledger row — atomically.
func (s *Service) ApplyCancellation(ctx context.Context, bookingID int64, reason string, now time.Time) (*ModificationResult, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	elig := s.CheckCancellationEligibility(b, now)
	if !elig.Allowed {
		return &ModificationResult{Eligibility: elig}, nil
	}
	refund := s.CalculateRefund(b, now)

	expectedUpdatedAt := b.UpdatedAt
	mod := &Modification{
		ID:               uuid.New(),
		BookingID:        b.ID,
		Kind:             ModificationCancellation,
		OriginalCheckIn:  b.CheckIn,
		OriginalCheckOut: b.CheckOut,
		OriginalPrice:    b.TotalPrice,
		RefundAmount:     &refund.RefundAmount,
		Reason:           &reason,
		Status:           ModificationStatusApplied,
		CreatedAt:        now,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.MarkCancelled(ctx, b.ID, reason, refund.RefundAmount, now, expectedUpdatedAt); err != nil {
			return err
		}
		return tx.InsertModification(ctx, mod)
	})
	if err != nil {
		return nil, fmt.Errorf("apply cancellation: %w", err)
	}

	updated := *b
	updated.Status = StatusCancelled
	updated.CancellationReason = &reason
	cancelledAt := now
	updated.CancelledAt = &cancelledAt
	updated.RefundAmount = &refund.RefundAmount

	if s.notifier != nil {
		s.notifier.BookingCancelled(ctx, &updated, mod)
	}
	s.logger.Info("booking cancelled",
		"booking_id", b.ID,
		"modification_id", mod.ID,
		"refund", refund.RefundAmount.String())

	return &ModificationResult{
		Eligibility:  elig,
		Modification: mod,
		Booking:      &updated,
		Refund:       &refund,
	}, nil
}
