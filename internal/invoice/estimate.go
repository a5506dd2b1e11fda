package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
)

// EstimateTitle heads the non-tax document.
const EstimateTitle = "Rough Estimate"

// Estimate is the plain rough-estimate view-model. It carries no tax.
type Estimate struct {
	Title      string          `json:"title"`
	Header     Header          `json:"header"`
	Rows       []Row           `json:"rows"`
	Summary    []SummaryLine   `json:"summary"`
	TotalGrams decimal.Decimal `json:"total_grams"`
	MakingRate decimal.Decimal `json:"making_rate_per_gram"`
	Final      decimal.Decimal `json:"final_amount"`
	Paid       decimal.Decimal `json:"paid_amount"`
	Udhari     decimal.Decimal `json:"udhari"`
}

// RenderEstimate formats a priced bill as a rough estimate. Totals are taken from
// the bill as-is; splitting rows never changes them.
func RenderEstimate(h Header, bill billing.Bill) Estimate {
	t := bill.Totals
	est := Estimate{
		Title:      EstimateTitle,
		Header:     h,
		Rows:       make([]Row, 0, len(bill.Lines)),
		TotalGrams: t.TotalGrams,
		MakingRate: t.MakingChargeRatePerGram,
		Final:      t.FinalAmount,
		Paid:       t.PaidAmount,
		Udhari:     t.Udhari(),
	}
	for _, l := range bill.Lines {
		est.Rows = append(est.Rows, lineRows(l, "")...)
	}

	est.Summary = append(est.Summary, summary("Subtotal", t.SubtotalExcludingMaking))
	if t.BuyBackTotal.IsPositive() {
		est.Summary = append(est.Summary, summary("Less: Old Gold", t.BuyBackTotal.Neg()))
	}
	if t.DiscountAmount.IsPositive() {
		est.Summary = append(est.Summary, summary("Less: Discount", t.DiscountAmount.Neg()))
	}
	est.Summary = append(est.Summary,
		summary("Making Charges", t.MakingCharges),
		summary("Total", t.FinalAmount),
		summary("Paid", t.PaidAmount),
	)
	if u := t.Udhari(); u.IsPositive() {
		est.Summary = append(est.Summary, summary("Udhari", u))
	}
	return est
}
