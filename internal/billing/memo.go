package billing

import "github.com/shopspring/decimal"

// PriceMemo is the caller-owned read-through memo of per-item gold rates fetched earlier
// in a billing session. The engine only reads it; a nil memo is empty.
type PriceMemo struct {
	rates map[int64]decimal.Decimal
}

// NewPriceMemo copies rates into a memo.
func NewPriceMemo(rates map[int64]decimal.Decimal) *PriceMemo {
	m := &PriceMemo{rates: make(map[int64]decimal.Decimal, len(rates))}
	for id, rate := range rates {
		if rate.IsPositive() {
			m.rates[id] = rate
		}
	}
	return m
}

// RateFor returns the memoised rate per gram for a stock item.
func (m *PriceMemo) RateFor(stockID int64) (decimal.Decimal, bool) {
	if m == nil {
		return decimal.Decimal{}, false
	}
	rate, ok := m.rates[stockID]
	return rate, ok
}

// Len returns the number of memoised items.
func (m *PriceMemo) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rates)
}

// MemoEntries extracts the rates worth remembering from priced lines: catalogue rates
// applied to stock lines, excluding manual overrides.
func MemoEntries(lines []PricedLine) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal)
	for _, l := range lines {
		if l.Kind != KindStock || l.RateOverridden || !l.RatePriced() {
			continue
		}
		out[l.StockID] = l.RatePerGram
	}
	return out
}
