package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawshaus/pawshaus/internal/money"
)

var (
	// ErrInvalidDateRange indicates check-out is not after check-in.
	ErrInvalidDateRange = errors.New("pricing: check-out must be after check-in")
	// ErrInvalidStayLength indicates no pricing tier covers the stay length.
	ErrInvalidStayLength = errors.New("pricing: no pricing tier covers stay length")
	// ErrTierConflict indicates overlapping tier ranges in reference data.
	ErrTierConflict = errors.New("pricing: overlapping pricing tiers")
)

// Surcharge applied to the base cost when boarding an entire (unneutered)
// dog. Additive with the peak surcharge; neither compounds on the other.
var entireDogSurchargePercent = decimal.NewFromInt(20)

// ReferenceStore supplies the reference-data snapshot a quote runs against.
type ReferenceStore interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Engine computes itemized stay quotes. It performs no writes; calling it
// twice with the same request and an unchanged snapshot yields identical
// breakdowns.
type Engine struct {
	store ReferenceStore
}

// NewEngine constructs a pricing engine.
func NewEngine(store ReferenceStore) *Engine {
	return &Engine{store: store}
}

// ComputeQuote prices a prospective stay. Unknown service codes are reported
// as warnings, not errors; a peak period's minimum-stay violation is also
// advisory only.
func (e *Engine) ComputeQuote(ctx context.Context, req StayRequest) (*PriceBreakdown, error) {
	checkIn := Midnight(req.CheckIn)
	checkOut := Midnight(req.CheckOut)

	nights := NightsBetween(checkIn, checkOut)
	if nights <= 0 {
		return nil, ErrInvalidDateRange
	}

	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference snapshot: %w", err)
	}

	tier, err := matchTier(snap.Tiers, nights)
	if err != nil {
		return nil, err
	}

	b := &PriceBreakdown{
		TotalNights:    nights,
		BaseRate:       tier.DailyRate,
		TierName:       tier.Name,
		BaseCost:       tier.DailyRate.Mul(decimal.NewFromInt(int64(nights))),
		PeakSurcharge:  decimal.Zero,
		DogSurcharge:   decimal.Zero,
		ServiceCharges: decimal.Zero,
	}

	if peak, ok := matchPeakPeriod(snap.PeakPeriods, checkIn, checkOut); ok {
		b.IsPeakPeriod = true
		b.PeakPeriodName = peak.Name
		b.PeakSurcharge = money.Percent(b.BaseCost, peak.SurchargePercent)
		if peak.MinStayDays != nil && nights < *peak.MinStayDays {
			b.Warnings = append(b.Warnings, fmt.Sprintf(
				"stay is below the %d-night minimum for peak period %q", *peak.MinStayDays, peak.Name))
		}
	}

	if req.EntireDog {
		b.DogSurcharge = money.Percent(b.BaseCost, entireDogSurchargePercent)
	}

	for _, sel := range req.Services {
		if sel.Quantity <= 0 {
			continue
		}
		svc, ok := snap.ServiceByCode(sel.Code)
		if !ok {
			b.Warnings = append(b.Warnings, fmt.Sprintf("unknown service %q ignored", sel.Code))
			continue
		}
		b.ServiceCharges = b.ServiceCharges.Add(svc.UnitPrice.Mul(decimal.NewFromInt(int64(sel.Quantity))))
	}

	// Additive on base cost only; rounding happens here and nowhere earlier.
	total := b.BaseCost.Add(b.PeakSurcharge).Add(b.DogSurcharge).Add(b.ServiceCharges)
	b.TotalPrice = money.RoundTotal(total)

	return b, nil
}

// matchTier selects the unique tier covering nights. More than one covering
// tier means the reference data is contradictory and the quote fails loudly.
func matchTier(tiers []PricingTier, nights int) (PricingTier, error) {
	var matched *PricingTier
	for i := range tiers {
		if !tiers[i].Contains(nights) {
			continue
		}
		if matched != nil {
			return PricingTier{}, fmt.Errorf("%w: %q and %q both cover %d nights",
				ErrTierConflict, matched.Name, tiers[i].Name, nights)
		}
		matched = &tiers[i]
	}
	if matched == nil {
		return PricingTier{}, fmt.Errorf("%w: %d nights", ErrInvalidStayLength, nights)
	}
	return *matched, nil
}

// matchPeakPeriod reduces over every period overlapping the occupied nights
// and keeps the one with the highest surcharge; equal surcharges tie-break
// on the lexicographically smallest name so results stay deterministic.
func matchPeakPeriod(periods []PeakPeriod, checkIn, checkOut time.Time) (PeakPeriod, bool) {
	// The stay occupies nights checkIn .. checkOut-1; period boundaries
	// are inclusive on both ends.
	lastNight := checkOut.AddDate(0, 0, -1)

	var best PeakPeriod
	found := false
	for _, p := range periods {
		if checkIn.After(Midnight(p.EndDate)) || lastNight.Before(Midnight(p.StartDate)) {
			continue
		}
		switch {
		case !found:
			best, found = p, true
		case p.SurchargePercent.GreaterThan(best.SurchargePercent):
			best = p
		case p.SurchargePercent.Equal(best.SurchargePercent) && p.Name < best.Name:
			best = p
		}
	}
	return best, found
}

// Midnight truncates t to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NightsBetween returns the number of calendar days from a to b.
func NightsBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)) / (24 * time.Hour))
}
