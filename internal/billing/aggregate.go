package billing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// BillTotals is the folded value of a bill. FinalAmount is always
// SubtotalExcludingMaking - BuyBackTotal - DiscountAmount + MakingCharges.
type BillTotals struct {
	SubtotalExcludingMaking decimal.Decimal `json:"subtotal_excluding_making"`
	TotalDiamondAmount      decimal.Decimal `json:"total_diamond_amount"`
	TotalGoldMetalAmount    decimal.Decimal `json:"total_gold_metal_amount"`
	TotalSilverMetalAmount  decimal.Decimal `json:"total_silver_metal_amount"`
	BuyBackTotal            decimal.Decimal `json:"buy_back_total"`
	DiscountAmount          decimal.Decimal `json:"discount_amount"`
	MakingChargeRatePerGram decimal.Decimal `json:"making_charge_rate_per_gram"`
	TotalGrams              decimal.Decimal `json:"total_grams"`
	MakingCharges           decimal.Decimal `json:"making_charges"`
	FinalAmount             decimal.Decimal `json:"final_amount"`
	PaidAmount              decimal.Decimal `json:"paid_amount"`
	RemainingAmount         decimal.Decimal `json:"remaining_amount"`
}

// Udhari returns the credit owed by the customer; over-payment owes nothing.
func (t BillTotals) Udhari() decimal.Decimal {
	if t.RemainingAmount.IsPositive() {
		return t.RemainingAmount
	}
	return decimal.Zero
}

// TotalsOptions carries the bill-level inputs of aggregation.
type TotalsOptions struct {
	DiscountAmount     float64
	MakingRateOverride *float64
	// PaidAmount nil means the bill is settled in full.
	PaidAmount *float64
	// DefaultMakingPerGram comes from the day's rate snapshot; zero falls back to the constant.
	DefaultMakingPerGram decimal.Decimal
}

// Aggregate folds priced lines into bill totals. The result does not depend on line order.
func Aggregate(lines []PricedLine, opts TotalsOptions) (BillTotals, error) {
	if len(lines) == 0 {
		return BillTotals{}, ErrNoItems
	}
	discount, err := fromFloat(opts.DiscountAmount, ErrInvalidAmount)
	if err != nil {
		return BillTotals{}, err
	}
	if discount.IsNegative() {
		return BillTotals{}, fmt.Errorf("%w: discount %s is negative", ErrInvalidAmount, discount)
	}
	makingRate, err := MakingRateFor(opts.MakingRateOverride, opts.DefaultMakingPerGram)
	if err != nil {
		return BillTotals{}, err
	}

	t := BillTotals{
		DiscountAmount:          round2(discount),
		MakingChargeRatePerGram: makingRate,
	}
	for _, l := range lines {
		if l.Kind == KindBuyBack {
			t.BuyBackTotal = t.BuyBackTotal.Add(l.TotalPrice.Abs())
			continue
		}
		t.SubtotalExcludingMaking = t.SubtotalExcludingMaking.Add(l.TotalPrice)
		t.TotalDiamondAmount = t.TotalDiamondAmount.Add(l.DiamondAmount)
		switch l.Metal {
		case MetalGold:
			t.TotalGoldMetalAmount = t.TotalGoldMetalAmount.Add(l.MetalAmount)
		case MetalSilver:
			t.TotalSilverMetalAmount = t.TotalSilverMetalAmount.Add(l.MetalAmount)
		}
		t.TotalGrams = t.TotalGrams.Add(l.TotalWeight())
	}
	if t.TotalGrams.IsPositive() {
		t.MakingCharges = round2(makingRate.Mul(t.TotalGrams))
	}
	t.FinalAmount = round2(t.SubtotalExcludingMaking.Sub(t.BuyBackTotal).Sub(t.DiscountAmount).Add(t.MakingCharges))

	if opts.PaidAmount == nil {
		t.PaidAmount = t.FinalAmount
		t.RemainingAmount = decimal.Zero
		return t, nil
	}
	paid, err := fromFloat(*opts.PaidAmount, ErrInvalidAmount)
	if err != nil {
		return BillTotals{}, err
	}
	if paid.IsNegative() {
		return BillTotals{}, fmt.Errorf("%w: paid amount %s is negative", ErrInvalidAmount, paid)
	}
	t.PaidAmount = round2(paid)
	t.RemainingAmount = t.FinalAmount.Sub(t.PaidAmount)
	return t, nil
}

// MakingRateFor picks the bill-level making rate: a valid override, else the day's
// default, else DefaultMakingChargePerGram.
func MakingRateFor(override *float64, dayDefault decimal.Decimal) (decimal.Decimal, error) {
	rate, ok, err := positiveOverride(override)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if ok {
		return rate, nil
	}
	if dayDefault.IsPositive() {
		return dayDefault, nil
	}
	return defaultMakingRate, nil
}

// CheckStock verifies that the quantities requested per stock id, summed across all
// lines, are available. It runs before any line is priced.
func CheckStock(lines []LineInput, stock map[int64]StockItem) error {
	requested := make(map[int64]int)
	for i, in := range lines {
		line, ok := in.(StockLine)
		if !ok {
			continue
		}
		if line.Quantity <= 0 {
			return &LineError{Index: i, Kind: KindStock, Err: fmt.Errorf("%w: got %d", ErrInvalidQuantity, line.Quantity)}
		}
		requested[line.StockID] += line.Quantity
	}
	ids := make([]int64, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		item, ok := stock[id]
		if !ok {
			return fmt.Errorf("%w: id %d", ErrStockNotFound, id)
		}
		if requested[id] > item.Quantity {
			return &InsufficientStockError{StockID: id, Requested: requested[id], Available: item.Quantity}
		}
	}
	return nil
}

// StockIDs lists the distinct stock ids referenced by the lines, ascending.
func StockIDs(lines []LineInput) []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for _, in := range lines {
		line, ok := in.(StockLine)
		if !ok {
			continue
		}
		if _, dup := seen[line.StockID]; dup {
			continue
		}
		seen[line.StockID] = struct{}{}
		ids = append(ids, line.StockID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
