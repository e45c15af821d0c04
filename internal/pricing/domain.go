package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// REFERENCE DATA
// ============================================================================

// PricingTier maps a stay length in nights to a daily rate. Tier ranges are
// inclusive on both ends; a nil MaxDays means unbounded. Tiers are expected
// to partition the positive integers; overlaps are a configuration error.
type PricingTier struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	MinDays     int             `json:"min_days" db:"min_days"`
	MaxDays     *int            `json:"max_days,omitempty" db:"max_days"`
	DailyRate   decimal.Decimal `json:"daily_rate" db:"daily_rate"`
	Description *string         `json:"description,omitempty" db:"description"`
}

// Contains reports whether nights falls inside the tier's range.
func (t PricingTier) Contains(nights int) bool {
	if nights < t.MinDays {
		return false
	}
	return t.MaxDays == nil || nights <= *t.MaxDays
}

// PeakPeriod is a surcharge window with inclusive date boundaries. Periods
// may overlap; selection among overlapping periods is a reduction picking
// the highest surcharge percent (ties broken by name).
type PeakPeriod struct {
	ID               int64           `json:"id" db:"id"`
	Name             string          `json:"name" db:"name"`
	StartDate        time.Time       `json:"start_date" db:"start_date"`
	EndDate          time.Time       `json:"end_date" db:"end_date"`
	SurchargePercent decimal.Decimal `json:"surcharge_percent" db:"surcharge_percent"`
	MinStayDays      *int            `json:"min_stay_days,omitempty" db:"min_stay_days"`
}

// BoardingService is a bookable add-on (meals, walks, grooming, ...)
// priced per unit.
type BoardingService struct {
	ID        int64           `json:"id" db:"id"`
	Code      string          `json:"code" db:"code"`
	Name      string          `json:"name" db:"name"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Active    bool            `json:"active" db:"active"`
}

// Reserved service codes used by the quote endpoint's meal/walk counters.
const (
	ServiceCodeMeal = "meal"
	ServiceCodeWalk = "walk"
)

// Snapshot is the reference-data view a single quote computation runs
// against. The engine never re-reads the store mid-computation.
type Snapshot struct {
	Tiers       []PricingTier     `json:"tiers"`
	PeakPeriods []PeakPeriod      `json:"peak_periods"`
	Services    []BoardingService `json:"services"`
}

// ServiceByCode returns the active service with the given code, if any.
func (s *Snapshot) ServiceByCode(code string) (BoardingService, bool) {
	for _, svc := range s.Services {
		if svc.Active && svc.Code == code {
			return svc, true
		}
	}
	return BoardingService{}, false
}

// ============================================================================
// QUOTE INPUT / OUTPUT
// ============================================================================

// ServiceSelection is a requested add-on with a quantity.
type ServiceSelection struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

// StayRequest is the input to a quote computation. Dates are calendar
// dates; time-of-day is ignored.
type StayRequest struct {
	CheckIn   time.Time
	CheckOut  time.Time
	EntireDog bool
	Services  []ServiceSelection
}

// PriceBreakdown is the fully itemized result of a quote computation. It is
// determined entirely by the stay request and the reference snapshot.
type PriceBreakdown struct {
	TotalNights    int             `json:"total_nights"`
	BaseRate       decimal.Decimal `json:"base_rate"`
	TierName       string          `json:"tier_name"`
	BaseCost       decimal.Decimal `json:"base_cost"`
	IsPeakPeriod   bool            `json:"is_peak_period"`
	PeakPeriodName string          `json:"peak_period_name,omitempty"`
	PeakSurcharge  decimal.Decimal `json:"peak_surcharge"`
	DogSurcharge   decimal.Decimal `json:"dog_surcharge"`
	ServiceCharges decimal.Decimal `json:"service_charges"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Warnings       []string        `json:"warnings,omitempty"`
}
