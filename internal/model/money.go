package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// centsExp is the exponent of one minor unit relative to a major unit.
const centsExp = -2

// CentsToDollars converts integer minor units into a major-unit decimal.
func CentsToDollars(cents int64) decimal.Decimal {
	return decimal.New(cents, centsExp)
}

// DollarsToCents converts a major-unit decimal back to minor units, rounding
// half away from zero to the nearest cent.
func DollarsToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FloatCents rounds a float amount in minor units to the nearest cent, half
// away from zero. Non-finite values map to 0.
func FloatCents(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Round(v))
}

// FormatDollars renders minor units as "$12.34".
func FormatDollars(cents int64) string {
	d := CentsToDollars(cents)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
