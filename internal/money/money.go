// Package money provides fixed-point monetary arithmetic helpers.
//
// All pricing and refund math in the service flows through
// decimal.Decimal values. Intermediate results are kept exact; rounding
// to two decimal places happens only when a final total is produced.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var hundred = decimal.NewFromInt(100)

// FromCents converts an integer cent amount to a decimal dollar amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Percent returns amount * (percent / 100) without rounding.
func Percent(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}

// RoundTotal rounds a final total to two decimal places.
func RoundTotal(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

var printer = message.NewPrinter(language.English)

// Format renders an amount as a human-readable dollar string, e.g.
// "$1,250.00". Used only for display in warnings and refund notes, never
// for arithmetic.
func Format(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return printer.Sprintf("$%v", number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
