package billing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred   = decimal.NewFromInt(100)
	pureKarat = decimal.NewFromInt(24)
)

// round2 rounds half away from zero to paise.
func round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// Round2 exposes the engine rounding rule to renderers.
func Round2(v decimal.Decimal) decimal.Decimal {
	return round2(v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// fromFloat converts user input, rejecting NaN and infinities before decimal sees them.
func fromFloat(v float64, sentinel error) (decimal.Decimal, error) {
	if !finite(v) {
		return decimal.Decimal{}, fmt.Errorf("%w: %v is not a number", sentinel, v)
	}
	return decimal.NewFromFloat(v), nil
}

// positiveOverride parses an optional per-gram rate. A nil pointer means no override.
func positiveOverride(v *float64) (decimal.Decimal, bool, error) {
	if v == nil {
		return decimal.Decimal{}, false, nil
	}
	d, err := fromFloat(*v, ErrInvalidOverride)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, false, fmt.Errorf("%w: rate %s must be greater than zero", ErrInvalidOverride, d)
	}
	return d, true, nil
}

func nullPositive(v decimal.NullDecimal) (decimal.Decimal, bool) {
	if !v.Valid || !v.Decimal.IsPositive() {
		return decimal.Decimal{}, false
	}
	return v.Decimal, true
}
