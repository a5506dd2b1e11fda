package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingEnv bundles the immutable collaborator data a stock line is priced against.
type PricingEnv struct {
	Rates  RateSnapshot
	Making MakingConfig
	Memo   *PriceMemo
}

// PriceStockLine prices one stock line. The invoiced value excludes making charges:
// rate-priced lines are metal × rate (+ diamond), catalogue-priced lines are the selling
// price minus the item's embedded making charge.
func PriceStockLine(item StockItem, line StockLine, env PricingEnv) (PricedLine, error) {
	if line.Quantity <= 0 {
		return PricedLine{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, line.Quantity)
	}
	override, hasOverride, err := positiveOverride(line.OverrideRatePerGram)
	if err != nil {
		return PricedLine{}, err
	}
	if err := checkRecorded(item); err != nil {
		return PricedLine{}, err
	}

	class := Classify(item)
	out := PricedLine{
		Kind:         KindStock,
		StockID:      item.ID,
		ItemName:     item.ArticleName,
		ArticleCode:  item.ArticleCode,
		Category:     item.Category,
		Material:     item.Material,
		Class:        class,
		Metal:        MetalOf(item.Material),
		WeightGrams:  item.WeightGrams,
		Carat:        item.Carat,
		DiamondCarat: item.DiamondCarat,
		Quantity:     line.Quantity,
		Hallmark:     line.Hallmark,
	}
	qty := decimal.NewFromInt(int64(line.Quantity))

	weight, weighted := nullPositive(item.WeightGrams)
	makingPerUnit := decimal.Zero
	if weighted {
		makingPerUnit = round2(env.Making.RateFor(item.Category, item.Material).Mul(weight))
	}
	out.MakingChargePerUnit = makingPerUnit
	out.MakingCharge = makingPerUnit.Mul(qty)

	diamondValue := decimal.Zero
	if dc, ok := nullPositive(item.DiamondCarat); ok {
		diamondValue = dc.Mul(env.Rates.DiamondPerCarat)
	}

	var rate decimal.Decimal
	rated := false
	switch {
	case hasOverride:
		if !weighted {
			return PricedLine{}, fmt.Errorf("%w: item %d has no weight to apply a per-gram rate", ErrInvalidOverride, item.ID)
		}
		rate, rated = override, true
		out.RateOverridden = true
	case class == ClassGoldMetal || (class == ClassMetalPlusDiamond && out.Metal == MetalGold):
		rate, err = goldRateFor(item, env)
		if err != nil {
			return PricedLine{}, err
		}
		rated = true
	case class == ClassSilverMetal || (class == ClassMetalPlusDiamond && out.Metal == MetalSilver):
		if !env.Rates.SilverPerGram.IsPositive() {
			return PricedLine{}, fmt.Errorf("%w: no silver rate", ErrRateUnavailable)
		}
		rate, rated = env.Rates.SilverPerGram, true
	}

	var unitMetal, unitDiamond decimal.Decimal
	if rated {
		unitPrice := round2(rate.Mul(weight).Add(diamondValue))
		unitDiamond = round2(diamondValue)
		unitMetal = unitPrice.Sub(unitDiamond)
		out.RatePerGram = rate
	} else {
		full := decimal.Zero
		if sp, ok := nullPositive(item.SellingPrice); ok {
			full = sp
		}
		// Making is billed once at bill level on the item's weight, so it comes out here.
		net := round2(full.Sub(makingPerUnit))
		if net.IsNegative() {
			net = decimal.Zero
		}
		if class == ClassDiamondOnly {
			unitDiamond = net
		} else {
			unitMetal = net
		}
	}

	out.UnitPrice = unitMetal.Add(unitDiamond)
	out.MetalAmount = unitMetal.Mul(qty)
	out.DiamondAmount = unitDiamond.Mul(qty)
	out.TotalPrice = out.MetalAmount.Add(out.DiamondAmount)
	return out, nil
}

// checkRecorded rejects measures the stock record carries but that cannot be priced.
// An absent weight or carat is fine; a recorded zero is not.
func checkRecorded(item StockItem) error {
	if item.WeightGrams.Valid && !item.WeightGrams.Decimal.IsPositive() {
		return fmt.Errorf("%w: item %d records weight %s", ErrInvalidWeight, item.ID, item.WeightGrams.Decimal)
	}
	if item.Carat.Valid && !item.Carat.Decimal.IsPositive() {
		return fmt.Errorf("%w: item %d records carat %s", ErrUnsupportedPurity, item.ID, item.Carat.Decimal)
	}
	return nil
}

func goldRateFor(item StockItem, env PricingEnv) (decimal.Decimal, error) {
	rate, karat, ok := env.Rates.GoldRate(item.Carat.Decimal)
	if ok {
		return rate, nil
	}
	if memo, ok := env.Memo.RateFor(item.ID); ok {
		return memo, nil
	}
	return decimal.Decimal{}, fmt.Errorf("%w: no %dK gold rate for item %d", ErrRateUnavailable, karat, item.ID)
}

// PriceExternalLine prices a manually entered item. Its unit price is taken as the
// metal value; any weight it carries still attracts the bill-level making charge.
func PriceExternalLine(line ExternalLine) (PricedLine, error) {
	name := line.ItemName
	if normalize(name) == "" {
		return PricedLine{}, fmt.Errorf("%w: item name required", ErrInvalidExternalItem)
	}
	if !finite(line.UnitPrice) || line.UnitPrice < 0 {
		return PricedLine{}, fmt.Errorf("%w: unit price %v for %q", ErrInvalidExternalItem, line.UnitPrice, name)
	}
	if line.Quantity <= 0 {
		return PricedLine{}, fmt.Errorf("%w: quantity %d for %q", ErrInvalidExternalItem, line.Quantity, name)
	}
	weight, err := optionalPositive(line.WeightGrams)
	if err != nil {
		return PricedLine{}, fmt.Errorf("%w: weight for %q: %v", ErrInvalidExternalItem, name, err)
	}
	carat, err := optionalPositive(line.Carat)
	if err != nil {
		return PricedLine{}, fmt.Errorf("%w: carat for %q: %v", ErrInvalidExternalItem, name, err)
	}

	unit := round2(decimal.NewFromFloat(line.UnitPrice))
	total := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
	return PricedLine{
		Kind:          KindExternal,
		ItemName:      name,
		ArticleCode:   line.ArticleCode,
		Metal:         MetalNone,
		WeightGrams:   weight,
		Carat:         carat,
		Quantity:      line.Quantity,
		Hallmark:      line.Hallmark,
		UnitPrice:     unit,
		TotalPrice:    total,
		MetalAmount:   total,
		DiamondAmount: decimal.Zero,
	}, nil
}

func optionalPositive(v *float64) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	if !finite(*v) || *v <= 0 {
		return decimal.NullDecimal{}, fmt.Errorf("%v must be a positive number", *v)
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v)), nil
}
