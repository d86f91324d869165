// Package core holds the ledger domain types shared by every component:
// accounts, credit cards, transactions, goals, and the money and date
// helpers they rely on. Amounts are kept as integer cents; floating point
// is only used at the presentation and analytics boundaries.
package core

import "math"

// Money is an amount in cents.
type Money struct {
	Cents int64
}

// Units returns the amount in currency units as a float64, for display
// and for the analytics components that work in units. Use cents for
// ledger arithmetic.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// CentsFromUnits converts a decimal amount in currency units to cents
// with half-up rounding. API payloads carry decimal numbers; everything
// past that boundary works in cents.
func CentsFromUnits(units float64) int64 {
	return int64(math.Round(units * 100))
}

// RoundCents rounds an intermediate float computation back to whole
// cents, half away from zero.
func RoundCents(v float64) int64 {
	return int64(math.Round(v))
}
