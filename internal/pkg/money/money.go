// internal/pkg/money/money.go
package money

import "math"

// Money represents a monetary value in a single currency.
// All money values within one checkout computation share one currency.
type Money struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	TaxRate  float64 `json:"tax_rate,omitempty"`
}

// New creates a Money value. Negative amounts are clamped to zero.
func New(currency string, amount float64) Money {
	if amount < 0 {
		amount = 0
	}
	return Money{Currency: currency, Amount: amount}
}

// Round rounds a monetary amount to 2 decimal places using
// round-half-away-from-zero. A tiny epsilon is added before rounding so
// values like 14.999999999999998 (a common float artifact of percentage
// math) land on the intended cent instead of truncating down.
func Round(v float64) float64 {
	if v < 0 {
		return -Round(-v)
	}
	return math.Round((v+1e-9)*100) / 100
}

// Rounded returns a copy of m with the amount rounded to 2 decimals.
func (m Money) Rounded() Money {
	m.Amount = Round(m.Amount)
	return m
}
