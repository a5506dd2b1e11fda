package billing

import "github.com/shopspring/decimal"

// LineKind tags the variant of a bill line.
type LineKind string

const (
	KindStock    LineKind = "STOCK"
	KindExternal LineKind = "EXTERNAL"
	KindBuyBack  LineKind = "BUY_BACK"
)

// LineInput is one of StockLine, ExternalLine or BuyBackLine.
type LineInput interface {
	Kind() LineKind
}

// StockLine sells a catalogued stock item.
type StockLine struct {
	StockID             int64
	Quantity            int
	OverrideRatePerGram *float64
	Hallmark            bool
}

// ExternalLine sells a manually priced item with no stock record.
type ExternalLine struct {
	ItemName    string
	ArticleCode string
	WeightGrams *float64
	Carat       *float64
	Quantity    int
	UnitPrice   float64
	Hallmark    bool
}

// BuyBackLine records gold the shop buys from the customer.
type BuyBackLine struct {
	Description         string
	WeightGrams         float64
	PurityPercent       float64
	Quantity            int
	RateOverridePerGram *float64
}

func (StockLine) Kind() LineKind    { return KindStock }
func (ExternalLine) Kind() LineKind { return KindExternal }
func (BuyBackLine) Kind() LineKind  { return KindBuyBack }

// PricedLine is the computed value of one bill line. TotalPrice always equals
// MetalAmount + DiamondAmount; buy-back lines are non-positive.
type PricedLine struct {
	Kind         LineKind            `json:"kind"`
	StockID      int64               `json:"stock_id,omitempty"`
	ItemName     string              `json:"item_name"`
	ArticleCode  string              `json:"article_code,omitempty"`
	Category     string              `json:"category,omitempty"`
	Material     string              `json:"material,omitempty"`
	Class        ItemClass           `json:"class,omitempty"`
	Metal        Metal               `json:"metal,omitempty"`
	WeightGrams  decimal.NullDecimal `json:"weight_grams"`
	Carat        decimal.NullDecimal `json:"carat"`
	DiamondCarat decimal.NullDecimal `json:"diamond_carat"`
	Quantity     int                 `json:"quantity"`
	Hallmark     bool                `json:"hallmark"`

	// RatePerGram is the metal rate actually applied; zero for catalog-priced lines.
	RatePerGram    decimal.Decimal `json:"rate_per_gram"`
	RateOverridden bool            `json:"rate_overridden"`

	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	MetalAmount   decimal.Decimal `json:"metal_amount"`
	DiamondAmount decimal.Decimal `json:"diamond_amount"`

	// Per-item making is display only; bills charge making at one bill-level rate.
	MakingChargePerUnit decimal.Decimal `json:"making_charge_per_unit"`
	MakingCharge        decimal.Decimal `json:"making_charge"`
}

// TotalWeight is weight × quantity, zero for unweighted lines.
func (l PricedLine) TotalWeight() decimal.Decimal {
	w, ok := nullPositive(l.WeightGrams)
	if !ok {
		return decimal.Zero
	}
	return w.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// HasWeight reports whether the line carries a positive weight.
func (l PricedLine) HasWeight() bool {
	_, ok := nullPositive(l.WeightGrams)
	return ok
}

// RatePriced reports whether the metal value came from a per-gram rate.
func (l PricedLine) RatePriced() bool {
	return l.RatePerGram.IsPositive()
}
