package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name            string
		base            string
		baseRate        string
		modifier        string
		wantRatePercent int64
		wantAmount      string
	}{
		{
			name:            "basic tier appointment",
			base:            "500",
			baseRate:        "0.10",
			modifier:        "1.0",
			wantRatePercent: 10,
			wantAmount:      "50.00",
		},
		{
			name:            "premium tier referral rounds 22.5 up to 23",
			base:            "1000",
			baseRate:        "0.15",
			modifier:        "1.5",
			wantRatePercent: 23,
			wantAmount:      "225.00",
		},
		{
			name:            "enterprise tier subscription",
			base:            "2499",
			baseRate:        "0.20",
			modifier:        "0.8",
			wantRatePercent: 16,
			wantAmount:      "399.84",
		},
		{
			name:            "enterprise tier health verification",
			base:            "800",
			baseRate:        "0.20",
			modifier:        "0.5",
			wantRatePercent: 10,
			wantAmount:      "80.00",
		},
		{
			name:            "basic tier training package",
			base:            "1200",
			baseRate:        "0.10",
			modifier:        "1.3",
			wantRatePercent: 13,
			wantAmount:      "156.00",
		},
		{
			name:            "amount rounds to two places",
			base:            "333.33",
			baseRate:        "0.15",
			modifier:        "1.0",
			wantRatePercent: 15,
			wantAmount:      "50.00",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calc := Calculate(
				decimal.RequireFromString(tc.base),
				decimal.RequireFromString(tc.baseRate),
				decimal.RequireFromString(tc.modifier),
			)

			assert.Equal(t, tc.wantRatePercent, calc.RatePercent)
			assert.Equal(t, tc.wantAmount, calc.Amount.StringFixed(2))
		})
	}
}

func TestCalculateRateIsExact(t *testing.T) {
	calc := Calculate(
		decimal.RequireFromString("1000"),
		decimal.RequireFromString("0.15"),
		decimal.RequireFromString("1.5"),
	)

	// The stored rate keeps full precision even when the display percent
	// rounds.
	assert.True(t, calc.Rate.Equal(decimal.RequireFromString("0.225")))
	assert.Equal(t, int64(23), calc.RatePercent)
}
