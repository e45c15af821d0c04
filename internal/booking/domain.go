package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawshaus/pawshaus/internal/pricing"
)

// ============================================================================
// BOOKING
// ============================================================================

// Status is the booking lifecycle state. Cancelled and completed are
// terminal; date changes are recorded as Modification rows while the status
// stays confirmed.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Booking is a persisted stay with its price breakdown snapshot and payment
// state. Price fields are overwritten as a unit when a date change is
// applied.
type Booking struct {
	ID        int64     `json:"id" db:"id"`
	Reference uuid.UUID `json:"reference" db:"reference"`

	OwnerName  string `json:"owner_name" db:"owner_name"`
	OwnerEmail string `json:"owner_email" db:"owner_email"`
	DogName    string `json:"dog_name" db:"dog_name"`
	EntireDog  bool   `json:"entire_dog" db:"entire_dog"`

	CheckIn     time.Time `json:"check_in" db:"check_in"`
	CheckOut    time.Time `json:"check_out" db:"check_out"`
	TotalNights int       `json:"total_nights" db:"total_nights"`

	Services []pricing.ServiceSelection `json:"services" db:"services"`

	BaseRate       decimal.Decimal `json:"base_rate" db:"base_rate"`
	PeakSurcharge  decimal.Decimal `json:"peak_surcharge" db:"peak_surcharge"`
	DogSurcharge   decimal.Decimal `json:"dog_surcharge" db:"dog_surcharge"`
	ServiceCharges decimal.Decimal `json:"service_charges" db:"service_charges"`
	TotalPrice     decimal.Decimal `json:"total_price" db:"total_price"`
	IsPeakPeriod   bool            `json:"is_peak_period" db:"is_peak_period"`
	PeakPeriodName string          `json:"peak_period_name,omitempty" db:"peak_period_name"`

	DepositAmount  decimal.Decimal `json:"deposit_amount" db:"deposit_amount"`
	DepositPaid    bool            `json:"deposit_paid" db:"deposit_paid"`
	BalanceAmount  decimal.Decimal `json:"balance_amount" db:"balance_amount"`
	BalancePaid    bool            `json:"balance_paid" db:"balance_paid"`
	BalanceDueDate time.Time       `json:"balance_due_date" db:"balance_due_date"`

	Status             Status           `json:"status" db:"status"`
	CancellationReason *string          `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledAt        *time.Time       `json:"cancelled_at,omitempty" db:"cancelled_at"`
	RefundAmount       *decimal.Decimal `json:"refund_amount,omitempty" db:"refund_amount"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AmountPaid returns how much the customer has actually paid so far.
func (b *Booking) AmountPaid() decimal.Decimal {
	if b.BalancePaid {
		return b.TotalPrice
	}
	if b.DepositPaid {
		return b.DepositAmount
	}
	return decimal.Zero
}

// StayRequest builds the pricing input for this booking with the given
// dates, reusing the stored dog and service selections.
func (b *Booking) StayRequest(checkIn, checkOut time.Time) pricing.StayRequest {
	return pricing.StayRequest{
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		EntireDog: b.EntireDog,
		Services:  b.Services,
	}
}

// ============================================================================
// MODIFICATION LEDGER
// ============================================================================

// ModificationKind distinguishes the two kinds of ledger entries.
type ModificationKind string

const (
	ModificationDateChange   ModificationKind = "DATE_CHANGE"
	ModificationCancellation ModificationKind = "CANCELLATION"
)

// Modification is an append-only audit row. One row is inserted per applied
// date change or cancellation, in the same transaction as the booking
// update; rows are never edited afterwards.
type Modification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	BookingID int64            `json:"booking_id" db:"booking_id"`
	Kind      ModificationKind `json:"kind" db:"kind"`

	OriginalCheckIn  time.Time  `json:"original_check_in" db:"original_check_in"`
	OriginalCheckOut time.Time  `json:"original_check_out" db:"original_check_out"`
	NewCheckIn       *time.Time `json:"new_check_in,omitempty" db:"new_check_in"`
	NewCheckOut      *time.Time `json:"new_check_out,omitempty" db:"new_check_out"`

	OriginalPrice   decimal.Decimal  `json:"original_price" db:"original_price"`
	NewPrice        *decimal.Decimal `json:"new_price,omitempty" db:"new_price"`
	PriceDifference *decimal.Decimal `json:"price_difference,omitempty" db:"price_difference"`
	RefundAmount    *decimal.Decimal `json:"refund_amount,omitempty" db:"refund_amount"`

	Reason    *string   `json:"reason,omitempty" db:"reason"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ModificationStatusApplied is the only status written by this service;
// the column exists so imports from the previous system keep their states.
const ModificationStatusApplied = "APPLIED"

// ============================================================================
// ENGINE RESULTS
// ============================================================================

// Eligibility is a structured policy decision. Denials are results, not
// errors, so callers can branch without unwrapping.
type Eligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Recalculation is the outcome of repricing a booking against new dates.
type Recalculation struct {
	NewPrice   decimal.Decimal         `json:"new_price"`
	NewPricing *pricing.PriceBreakdown `json:"new_pricing"`
	Difference decimal.Decimal         `json:"difference"`
}

// RefundBreakdown itemizes a cancellation refund decision.
type RefundBreakdown struct {
	DaysBeforeCheckIn int             `json:"days_before_check_in"`
	Bracket           string          `json:"bracket"`
	FeePercent        decimal.Decimal `json:"fee_percent"`
	RefundPercent     decimal.Decimal `json:"refund_percent"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	CancellationFee   decimal.Decimal `json:"cancellation_fee"`
	RefundAmount      decimal.Decimal `json:"refund_amount"`
	Note              string          `json:"note"`
}
