package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// MOCK STORE
// ============================================================================

type mockStore struct {
	snapshot *Snapshot
	err      error
	calls    int
}

func (m *mockStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshot, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func standardSnapshot() *Snapshot {
	return &Snapshot{
		Tiers: []PricingTier{
			{ID: 1, Name: "Short stay", MinDays: 1, MaxDays: intPtr(6), DailyRate: decimal.NewFromInt(55)},
			{ID: 2, Name: "Standard stay", MinDays: 7, MaxDays: intPtr(20), DailyRate: decimal.NewFromInt(50)},
			{ID: 3, Name: "Long stay", MinDays: 21, DailyRate: decimal.NewFromInt(45)},
		},
		PeakPeriods: []PeakPeriod{
			{ID: 1, Name: "Christmas", StartDate: date(2026, 12, 20), EndDate: date(2027, 1, 3),
				SurchargePercent: decimal.NewFromInt(20), MinStayDays: intPtr(3)},
			{ID: 2, Name: "Easter", StartDate: date(2026, 4, 3), EndDate: date(2026, 4, 13),
				SurchargePercent: decimal.NewFromInt(15)},
		},
		Services: []BoardingService{
			{ID: 1, Code: ServiceCodeMeal, Name: "House meal", UnitPrice: decimal.RequireFromString("4.50"), Active: true},
			{ID: 2, Code: ServiceCodeWalk, Name: "Solo walk", UnitPrice: decimal.NewFromInt(9), Active: true},
			{ID: 3, Code: "grooming", Name: "Full groom", UnitPrice: decimal.NewFromInt(35), Active: true},
			{ID: 4, Code: "puppy-play", Name: "Puppy playgroup", UnitPrice: decimal.NewFromInt(12), Active: false},
		},
	}
}

func engineWith(snap *Snapshot) *Engine {
	return NewEngine(&mockStore{snapshot: snap})
}

// ============================================================================
// QUOTES
// ============================================================================

func TestComputeQuoteTenNightsNoExtras(t *testing.T) {
	engine := engineWith(standardSnapshot())

	b, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 10, 1),
		CheckOut: date(2026, 10, 11),
	})
	require.NoError(t, err)

	assert.Equal(t, 10, b.TotalNights)
	assert.Equal(t, "Standard stay", b.TierName)
	assert.True(t, b.BaseCost.Equal(decimal.NewFromInt(500)), "base cost %s", b.BaseCost)
	assert.False(t, b.IsPeakPeriod)
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(500)), "total %s", b.TotalPrice)
	assert.Equal(t, "500", b.TotalPrice.String())
	assert.Empty(t, b.Warnings)
}

func TestComputeQuoteInsidePeakPeriod(t *testing.T) {
	snap := standardSnapshot()
	snap.Tiers = []PricingTier{{ID: 1, Name: "Flat", MinDays: 1, DailyRate: decimal.NewFromInt(50)}}
	engine := engineWith(snap)

	b, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 12, 21),
		CheckOut: date(2026, 12, 26),
	})
	require.NoError(t, err)

	// 5 nights * $50 = $250 base; 20% peak = $50.
	assert.True(t, b.BaseCost.Equal(decimal.NewFromInt(250)))
	assert.True(t, b.IsPeakPeriod)
	assert.Equal(t, "Christmas", b.PeakPeriodName)
	assert.True(t, b.PeakSurcharge.Equal(decimal.NewFromInt(50)), "surcharge %s", b.PeakSurcharge)
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(300)), "total %s", b.TotalPrice)
}

func TestComputeQuoteDeterministic(t *testing.T) {
	engine := engineWith(standardSnapshot())
	req := StayRequest{
		CheckIn:   date(2026, 12, 18),
		CheckOut:  date(2026, 12, 28),
		EntireDog: true,
		Services: []ServiceSelection{
			{Code: ServiceCodeMeal, Quantity: 20},
			{Code: "grooming", Quantity: 1},
		},
	}

	first, err := engine.ComputeQuote(context.Background(), req)
	require.NoError(t, err)
	second, err := engine.ComputeQuote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeQuoteRejectsInvalidDateRange(t *testing.T) {
	engine := engineWith(standardSnapshot())

	for name, req := range map[string]StayRequest{
		"checkout equals checkin": {CheckIn: date(2026, 6, 1), CheckOut: date(2026, 6, 1)},
		"checkout before checkin": {CheckIn: date(2026, 6, 5), CheckOut: date(2026, 6, 1)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := engine.ComputeQuote(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidDateRange)
		})
	}
}

func TestComputeQuoteNoTierCoversStay(t *testing.T) {
	snap := standardSnapshot()
	snap.Tiers = []PricingTier{{Name: "Week plus", MinDays: 7, DailyRate: decimal.NewFromInt(50)}}
	engine := engineWith(snap)

	_, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 6, 1),
		CheckOut: date(2026, 6, 3),
	})
	assert.ErrorIs(t, err, ErrInvalidStayLength)
}

func TestComputeQuoteOverlappingTiersFailLoudly(t *testing.T) {
	snap := standardSnapshot()
	snap.Tiers = []PricingTier{
		{Name: "A", MinDays: 1, MaxDays: intPtr(10), DailyRate: decimal.NewFromInt(50)},
		{Name: "B", MinDays: 5, MaxDays: intPtr(15), DailyRate: decimal.NewFromInt(45)},
	}
	engine := engineWith(snap)

	_, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 6, 1),
		CheckOut: date(2026, 6, 8),
	})
	assert.ErrorIs(t, err, ErrTierConflict)
}

func TestComputeQuotePicksHighestSurchargeAmongOverlaps(t *testing.T) {
	snap := standardSnapshot()
	snap.PeakPeriods = []PeakPeriod{
		{Name: "Shoulder", StartDate: date(2026, 7, 1), EndDate: date(2026, 7, 31), SurchargePercent: decimal.NewFromInt(10)},
		{Name: "High summer", StartDate: date(2026, 7, 10), EndDate: date(2026, 7, 20), SurchargePercent: decimal.NewFromInt(25)},
	}
	engine := engineWith(snap)

	b, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 7, 12),
		CheckOut: date(2026, 7, 19),
	})
	require.NoError(t, err)
	assert.Equal(t, "High summer", b.PeakPeriodName)
	// 7 nights * $50 = $350; 25% = $87.50.
	assert.Equal(t, "87.5", b.PeakSurcharge.String())
}

func TestComputeQuoteEqualSurchargeTieBreaksByName(t *testing.T) {
	snap := standardSnapshot()
	snap.PeakPeriods = []PeakPeriod{
		{Name: "Zeta week", StartDate: date(2026, 7, 1), EndDate: date(2026, 7, 31), SurchargePercent: decimal.NewFromInt(15)},
		{Name: "Alpha week", StartDate: date(2026, 7, 1), EndDate: date(2026, 7, 31), SurchargePercent: decimal.NewFromInt(15)},
	}
	engine := engineWith(snap)

	b, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 7, 10),
		CheckOut: date(2026, 7, 17),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alpha week", b.PeakPeriodName)
}

func TestComputeQuoteCheckoutDayDoesNotTriggerPeak(t *testing.T) {
	engine := engineWith(standardSnapshot())

	// Departure on the morning the peak starts: no peak night occupied.
	b, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 12, 13),
		CheckOut: date(2026, 12, 20),
	})
	require.NoError(t, err)
	assert.False(t, b.IsPeakPeriod)
}

func TestComputeQuoteMinStayWarningIsAdvisory(t *testing.T) {
	engine := engineWith(standardSnapshot())

	b, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 12, 22),
		CheckOut: date(2026, 12, 24),
	})
	require.NoError(t, err)
	assert.True(t, b.IsPeakPeriod)
	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "3-night minimum")
	assert.Contains(t, b.Warnings[0], "Christmas")
	// Quote still priced.
	assert.True(t, b.TotalPrice.GreaterThan(decimal.Zero))
}

func TestComputeQuoteSurchargesAreAdditiveOnBaseCost(t *testing.T) {
	snap := standardSnapshot()
	snap.Tiers = []PricingTier{{Name: "Flat", MinDays: 1, DailyRate: decimal.NewFromInt(50)}}
	engine := engineWith(snap)

	b, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:   date(2026, 12, 21),
		CheckOut:  date(2026, 12, 26),
		EntireDog: true,
		Services:  []ServiceSelection{{Code: ServiceCodeWalk, Quantity: 2}},
	})
	require.NoError(t, err)

	// Base $250, peak 20% = $50, dog 20% of BASE (not of base+peak) = $50,
	// walks 2 * $9 = $18.
	assert.True(t, b.PeakSurcharge.Equal(decimal.NewFromInt(50)))
	assert.True(t, b.DogSurcharge.Equal(decimal.NewFromInt(50)), "dog surcharge %s", b.DogSurcharge)
	assert.True(t, b.ServiceCharges.Equal(decimal.NewFromInt(18)))
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(368)), "total %s", b.TotalPrice)
}

func TestComputeQuoteUnknownServiceIgnoredWithWarning(t *testing.T) {
	engine := engineWith(standardSnapshot())

	b, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 6, 1),
		CheckOut: date(2026, 6, 8),
		Services: []ServiceSelection{
			{Code: "helicopter-ride", Quantity: 1},
			{Code: "grooming", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "helicopter-ride")
	assert.True(t, b.ServiceCharges.Equal(decimal.NewFromInt(35)))
}

func TestComputeQuoteInactiveServiceTreatedAsUnknown(t *testing.T) {
	engine := engineWith(standardSnapshot())

	b, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 6, 1),
		CheckOut: date(2026, 6, 8),
		Services: []ServiceSelection{{Code: "puppy-play", Quantity: 3}},
	})
	require.NoError(t, err)
	require.Len(t, b.Warnings, 1)
	assert.True(t, b.ServiceCharges.IsZero())
}

func TestComputeQuoteExactTierArithmetic(t *testing.T) {
	snap := standardSnapshot()
	snap.Tiers = []PricingTier{{Name: "Flat", MinDays: 1, DailyRate: decimal.RequireFromString("49.95")}}
	engine := engineWith(snap)

	b, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 6, 1),
		CheckOut: date(2026, 6, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, "149.85", b.BaseCost.String())
	assert.Equal(t, "149.85", b.TotalPrice.String())
}

func TestComputeQuoteStoreErrorPropagates(t *testing.T) {
	boom := errors.New("pg down")
	engine := NewEngine(&mockStore{err: boom})

	_, err := engine.ComputeQuote(context.Background(), StayRequest{
		CheckIn:  date(2026, 6, 1),
		CheckOut: date(2026, 6, 8),
	})
	assert.ErrorIs(t, err, boom)
}

func TestStayRequestFromQuoteMapsMealsAndWalks(t *testing.T) {
	stay := StayRequestFromQuote(date(2026, 6, 1), date(2026, 6, 8), true,
		[]ServiceSelection{{Code: "grooming", Quantity: 1}}, 14, 7)

	require.Len(t, stay.Services, 3)
	assert.Equal(t, ServiceSelection{Code: ServiceCodeMeal, Quantity: 14}, stay.Services[1])
	assert.Equal(t, ServiceSelection{Code: ServiceCodeWalk, Quantity: 7}, stay.Services[2])
}
