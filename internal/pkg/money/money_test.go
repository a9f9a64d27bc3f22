// internal/pkg/money/money_test.go
package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"exact cents untouched", 12.34, 12.34},
		{"half rounds away from zero", 12.345, 12.35},
		{"below half rounds down", 12.344, 12.34},
		{"float artifact lands on intended cent", 14.999999999999998, 15.00},
		{"percentage math artifact", 100.0 * 0.15, 15.00},
		{"zero", 0, 0},
		{"negative half rounds away from zero", -12.345, -12.35},
		{"negative artifact", -14.999999999999998, -15.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Round(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	m := New("EUR", 19.99)
	assert.Equal(t, "EUR", m.Currency)
	assert.Equal(t, 19.99, m.Amount)

	clamped := New("EUR", -5)
	assert.Equal(t, 0.0, clamped.Amount)
}

func TestRounded(t *testing.T) {
	m := Money{Currency: "EUR", Amount: 10.005}
	assert.Equal(t, 10.01, m.Rounded().Amount)
	// Original is untouched.
	assert.Equal(t, 10.005, m.Amount)
}
