package booking

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawshaus/pawshaus/internal/money"
	"github.com/pawshaus/pawshaus/internal/pricing"
)

// refundBracket is one row of the lead-time refund table. Brackets are
// half-open on the lower bound: exactly 7 days lands in the 50% row,
// exactly 30 in the full-refund row.
type refundBracket struct {
	minDays    int
	label      string
	feePercent decimal.Decimal
}

// Ordered by descending lead time; the first bracket whose minDays the
// lead time reaches wins.
var refundBrackets = []refundBracket{
	{minDays: 30, label: "30+ days", feePercent: decimal.Zero},
	{minDays: 14, label: "14-29 days", feePercent: decimal.NewFromInt(25)},
	{minDays: 7, label: "7-13 days", feePercent: decimal.NewFromInt(50)},
	{minDays: 0, label: "under 7 days", feePercent: decimal.NewFromInt(100)},
}

var fullPercent = decimal.NewFromInt(100)

// CalculateRefund computes the cancellation fee and refund for cancelling
// at time now. The nominal fee is a percentage of the total price, but it
// is capped at what was actually paid: a deposit-only booking never owes
// beyond its deposit, and the refund is never negative.
func (s *Service) CalculateRefund(b *Booking, now time.Time) RefundBreakdown {
	days := pricing.NightsBetween(now, b.CheckIn)

	bracket := refundBrackets[len(refundBrackets)-1]
	for _, candidate := range refundBrackets {
		if days >= candidate.minDays {
			bracket = candidate
			break
		}
	}

	paid := b.AmountPaid()
	fee := money.Percent(b.TotalPrice, bracket.feePercent)
	if fee.GreaterThan(paid) {
		fee = paid
	}
	fee = money.RoundTotal(fee)
	refund := money.RoundTotal(paid.Sub(fee))

	note := fmt.Sprintf("cancelled %d days before check-in, %s%% fee applies: fee %s, refund %s",
		days, bracket.feePercent.String(), money.Format(fee), money.Format(refund))

	return RefundBreakdown{
		DaysBeforeCheckIn: days,
		Bracket:           bracket.label,
		FeePercent:        bracket.feePercent,
		RefundPercent:     fullPercent.Sub(bracket.feePercent),
		AmountPaid:        paid,
		CancellationFee:   fee,
		RefundAmount:      refund,
		Note:              note,
	}
}
