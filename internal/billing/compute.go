package billing

import "fmt"

// BillInput is a bill as entered at the counter.
type BillInput struct {
	Lines              []LineInput
	DiscountAmount     float64
	MakingRateOverride *float64
	PaidAmount         *float64
}

// Sources is the collaborator data fetched for one pricing call.
type Sources struct {
	Rates  RateSnapshot
	Making MakingConfig
	Stock  map[int64]StockItem
	Memo   *PriceMemo
	// Valuer prices buy-back gold; nil uses Rates.
	Valuer GoldValuer
}

// Bill is the computed result of a pricing call.
type Bill struct {
	Lines  []PricedLine `json:"lines"`
	Totals BillTotals   `json:"totals"`
}

// HallmarkCount returns the number of lines marked for hallmarking.
func (b Bill) HallmarkCount() int {
	n := 0
	for _, l := range b.Lines {
		if l.Hallmark {
			n++
		}
	}
	return n
}

// Compute validates stock, prices every line and aggregates the bill. It is a pure
// function of its inputs and safe for concurrent use.
func Compute(in BillInput, src Sources) (Bill, error) {
	if len(in.Lines) == 0 {
		return Bill{}, ErrNoItems
	}
	if err := CheckStock(in.Lines, src.Stock); err != nil {
		return Bill{}, err
	}
	valuer := src.Valuer
	if valuer == nil {
		valuer = src.Rates
	}
	env := PricingEnv{Rates: src.Rates, Making: src.Making, Memo: src.Memo}

	priced := make([]PricedLine, 0, len(in.Lines))
	for i, raw := range in.Lines {
		var (
			line PricedLine
			err  error
		)
		switch l := raw.(type) {
		case StockLine:
			line, err = PriceStockLine(src.Stock[l.StockID], l, env)
		case ExternalLine:
			line, err = PriceExternalLine(l)
		case BuyBackLine:
			line, err = ValueBuyBack(l, valuer)
		default:
			err = fmt.Errorf("billing: unknown line type %T", raw)
		}
		if err != nil {
			var kind LineKind
			if raw != nil {
				kind = raw.Kind()
			}
			return Bill{}, &LineError{Index: i, Kind: kind, Err: err}
		}
		priced = append(priced, line)
	}

	totals, err := Aggregate(priced, TotalsOptions{
		DiscountAmount:       in.DiscountAmount,
		MakingRateOverride:   in.MakingRateOverride,
		PaidAmount:           in.PaidAmount,
		DefaultMakingPerGram: src.Rates.DefaultMakingPerGram,
	})
	if err != nil {
		return Bill{}, err
	}
	return Bill{Lines: priced, Totals: totals}, nil
}
