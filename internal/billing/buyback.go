package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PurityToCarat converts a purity percentage to its karat equivalent (75% → 18K).
func PurityToCarat(purityPercent decimal.Decimal) decimal.Decimal {
	return purityPercent.Div(hundred).Mul(pureKarat)
}

// ValueBuyBack values gold bought back from the customer as a non-positive line.
// Only the metal value counts: no making charge, no diamond, no tax.
func ValueBuyBack(line BuyBackLine, valuer GoldValuer) (PricedLine, error) {
	if !finite(line.WeightGrams) || line.WeightGrams <= 0 {
		return PricedLine{}, fmt.Errorf("%w: buy-back weight %v", ErrInvalidWeight, line.WeightGrams)
	}
	if line.Quantity <= 0 {
		return PricedLine{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, line.Quantity)
	}
	if !finite(line.PurityPercent) || line.PurityPercent <= 0 || line.PurityPercent > 100 {
		return PricedLine{}, fmt.Errorf("%w: purity %v%%", ErrUnsupportedPurity, line.PurityPercent)
	}
	override, hasOverride, err := positiveOverride(line.RateOverridePerGram)
	if err != nil {
		return PricedLine{}, err
	}

	weight := decimal.NewFromFloat(line.WeightGrams)
	carat := PurityToCarat(decimal.NewFromFloat(line.PurityPercent))

	var unit, rate decimal.Decimal
	if hasOverride {
		rate = override
		unit = round2(override.Mul(weight))
	} else {
		if valuer == nil {
			return PricedLine{}, fmt.Errorf("%w: no gold valuer for buy-back", ErrRateUnavailable)
		}
		value, err := valuer.GoldValue(weight, carat)
		if err != nil {
			return PricedLine{}, err
		}
		unit = round2(value)
		rate = value.DivRound(weight, 2)
	}

	name := line.Description
	if normalize(name) == "" {
		name = "Old gold"
	}
	total := unit.Mul(decimal.NewFromInt(int64(line.Quantity))).Neg()
	return PricedLine{
		Kind:           KindBuyBack,
		ItemName:       name,
		Metal:          MetalGold,
		WeightGrams:    decimal.NewNullDecimal(weight),
		Carat:          decimal.NewNullDecimal(carat),
		Quantity:       line.Quantity,
		RatePerGram:    rate,
		RateOverridden: hasOverride,
		UnitPrice:      unit.Neg(),
		TotalPrice:     total,
		MetalAmount:    total,
		DiamondAmount:  decimal.Zero,
	}, nil
}
