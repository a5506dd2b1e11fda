// Package invoice renders priced bills as printable view-models: the plain rough
// estimate and the GST tax invoice.
package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
)

// Header identifies the shop, the bill and the customer on either document.
type Header struct {
	ShopName      string    `json:"shop_name"`
	ShopAddress   string    `json:"shop_address,omitempty"`
	GSTIN         string    `json:"gstin,omitempty"`
	BillNumber    string    `json:"bill_number"`
	Date          time.Time `json:"date"`
	CustomerName  string    `json:"customer_name,omitempty"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
}

// RowKind tags a printed row.
type RowKind string

const (
	RowItem    RowKind = "ITEM"
	RowMetal   RowKind = "METAL"
	RowDiamond RowKind = "DIAMOND"
	RowBuyBack RowKind = "BUY_BACK"
)

// Row is one printed line. Rate is zero when the amount is shown flat.
type Row struct {
	Kind        RowKind             `json:"kind"`
	Description string              `json:"description"`
	ArticleCode string              `json:"article_code,omitempty"`
	HSN         string              `json:"hsn,omitempty"`
	WeightGrams decimal.NullDecimal `json:"weight_grams"`
	Carat       decimal.NullDecimal `json:"carat"`
	Quantity    int                 `json:"quantity"`
	Rate        decimal.Decimal     `json:"rate"`
	RateUnit    string              `json:"rate_unit,omitempty"`
	Amount      decimal.Decimal     `json:"amount"`
	Hallmark    bool                `json:"hallmark"`

	AmountText string `json:"amount_text"`
	RateText   string `json:"rate_text,omitempty"`
}

// Flat reports whether the row prints its amount without a rate.
func (r Row) Flat() bool { return !r.Rate.IsPositive() }

// SummaryLine is a labelled amount in the totals block.
type SummaryLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Text   string          `json:"text"`
}

func summary(label string, amount decimal.Decimal) SummaryLine {
	return SummaryLine{Label: label, Amount: amount, Text: FormatINR(amount)}
}

// lineRows splits a priced line into printed rows. Diamond-bearing weighted lines
// print a metal row followed by a diamond row; the row amounts sum to the line total.
func lineRows(l billing.PricedLine, hsn string) []Row {
	name := l.ItemName
	if l.Kind == billing.KindBuyBack {
		r := baseRow(l, RowBuyBack, name, hsn)
		r.Amount = l.TotalPrice
		r.Rate = displayRate(l.TotalPrice.Abs(), l)
		return []Row{finish(r)}
	}

	if l.DiamondAmount.IsPositive() && l.HasWeight() && !l.MetalAmount.IsZero() {
		metal := baseRow(l, RowMetal, name, hsn)
		metal.Amount = l.MetalAmount
		metal.Rate = displayRate(l.MetalAmount, l)

		diamond := Row{
			Kind:        RowDiamond,
			Description: name + " (diamond)",
			HSN:         hsn,
			Carat:       l.DiamondCarat,
			Quantity:    l.Quantity,
			Amount:      l.DiamondAmount,
		}
		return []Row{finish(metal), finish(diamond)}
	}

	r := baseRow(l, RowItem, name, hsn)
	r.Amount = l.TotalPrice
	r.Rate = displayRate(l.MetalAmount, l)
	return []Row{finish(r)}
}

func baseRow(l billing.PricedLine, kind RowKind, name, hsn string) Row {
	return Row{
		Kind:        kind,
		Description: name,
		ArticleCode: l.ArticleCode,
		HSN:         hsn,
		WeightGrams: l.WeightGrams,
		Carat:       l.Carat,
		Quantity:    l.Quantity,
		Hallmark:    l.Hallmark,
	}
}

// displayRate is amount / (weight × quantity), zero for unweighted lines.
func displayRate(amount decimal.Decimal, l billing.PricedLine) decimal.Decimal {
	grams := l.TotalWeight()
	if !grams.IsPositive() || !amount.IsPositive() {
		return decimal.Zero
	}
	return amount.DivRound(grams, 2)
}

func finish(r Row) Row {
	r.AmountText = FormatINR(r.Amount)
	if !r.Flat() {
		r.RateUnit = "g"
		r.RateText = FormatINR(r.Rate) + "/g"
	}
	return r
}
