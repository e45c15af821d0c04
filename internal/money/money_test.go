package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFromCents(t *testing.T) {
	assert.True(t, FromCents(12345).Equal(decimal.RequireFromString("123.45")))
	assert.True(t, FromCents(0).Equal(decimal.Zero))
	assert.True(t, FromCents(5).Equal(decimal.RequireFromString("0.05")))
}

func TestPercentIsExact(t *testing.T) {
	// 250 * 20% must be exactly 50, not 49.999...
	got := Percent(decimal.NewFromInt(250), decimal.NewFromInt(20))
	assert.True(t, got.Equal(decimal.NewFromInt(50)), "got %s", got)
}

func TestPercentNoIntermediateRounding(t *testing.T) {
	// 33.335 stays exact until a caller rounds the final total.
	got := Percent(decimal.RequireFromString("66.67"), decimal.NewFromInt(50))
	assert.Equal(t, "33.335", got.String())
	assert.Equal(t, "33.34", RoundTotal(got).String())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$1,250.00", Format(decimal.NewFromInt(1250)))
	assert.Equal(t, "$0.50", Format(decimal.RequireFromString("0.5")))
}
