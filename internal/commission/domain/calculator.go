package domain

import "github.com/shopspring/decimal"

// Calculation is the result of the pure commission computation.
type Calculation struct {
	// Rate is the exact final fraction (base rate x type modifier).
	Rate decimal.Decimal
	// RatePercent is the display percentage, rounded half away from zero
	// to a whole number.
	RatePercent int64
	// Amount is round(base x Rate) at two decimal places, half away from
	// zero.
	Amount decimal.Decimal
}

// Calculate is deterministic and side-effect free. Rate and modifier
// resolution (including defaults for unknown tiers/types) happens in the
// plan tables; this only does the arithmetic.
func Calculate(baseAmount, baseRate, modifier decimal.Decimal) Calculation {
	rate := baseRate.Mul(modifier)
	return Calculation{
		Rate:        rate,
		RatePercent: rate.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Amount:      baseAmount.Mul(rate).Round(2),
	}
}
