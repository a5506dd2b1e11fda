package bills

import (
	"fmt"
	"time"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/invoice"
	"github.com/Ayushchauha111/jewelpos/internal/platform/httpx"
)

// LineRequest is one bill line as posted by the counter. Numeric rules are enforced
// by the pricing engine so they surface as typed billing errors.
type LineRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=STOCK EXTERNAL BUY_BACK"`
	Quantity int    `json:"quantity"`
	Hallmark bool   `json:"hallmark"`

	StockID      int64    `json:"stock_id,omitempty" validate:"required_if=Kind STOCK"`
	RateOverride *float64 `json:"rate_override_per_gram,omitempty"`

	ItemName    string   `json:"item_name,omitempty" validate:"max=200"`
	ArticleCode string   `json:"article_code,omitempty" validate:"max=64"`
	WeightGrams *float64 `json:"weight_grams,omitempty"`
	Carat       *float64 `json:"carat,omitempty"`
	UnitPrice   float64  `json:"unit_price,omitempty"`

	PurityPercent float64 `json:"purity_percent,omitempty"`
}

// Input converts the request into an engine line.
func (l LineRequest) Input() billing.LineInput {
	switch billing.LineKind(l.Kind) {
	case billing.KindStock:
		return billing.StockLine{
			StockID:             l.StockID,
			Quantity:            l.Quantity,
			OverrideRatePerGram: l.RateOverride,
			Hallmark:            l.Hallmark,
		}
	case billing.KindBuyBack:
		var weight float64
		if l.WeightGrams != nil {
			weight = *l.WeightGrams
		}
		return billing.BuyBackLine{
			Description:         l.ItemName,
			WeightGrams:         weight,
			PurityPercent:       l.PurityPercent,
			Quantity:            l.Quantity,
			RateOverridePerGram: l.RateOverride,
		}
	default:
		return billing.ExternalLine{
			ItemName:    l.ItemName,
			ArticleCode: l.ArticleCode,
			WeightGrams: l.WeightGrams,
			Carat:       l.Carat,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Hallmark:    l.Hallmark,
		}
	}
}

// BillRequest is the body of POST /bills/quote.
type BillRequest struct {
	// SessionID scopes the price memo to one billing session at the counter.
	SessionID          string        `json:"session_id,omitempty" validate:"max=128"`
	BillDate           string        `json:"bill_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Lines              []LineRequest `json:"lines" validate:"dive"`
	DiscountAmount     float64       `json:"discount_amount"`
	MakingRateOverride *float64      `json:"making_rate_per_gram,omitempty"`
	PaidAmount         *float64      `json:"paid_amount,omitempty"`
}

// Date returns the bill date, defaulting to now's calendar day.
func (r BillRequest) Date(now time.Time) (time.Time, error) {
	if r.BillDate == "" {
		return now, nil
	}
	d, err := time.Parse(time.DateOnly, r.BillDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bill_date must be YYYY-MM-DD", httpx.ErrValidation)
	}
	return d, nil
}

// Input converts the request into engine input.
func (r BillRequest) Input() billing.BillInput {
	lines := make([]billing.LineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, l.Input())
	}
	return billing.BillInput{
		Lines:              lines,
		DiscountAmount:     r.DiscountAmount,
		MakingRateOverride: r.MakingRateOverride,
		PaidAmount:         r.PaidAmount,
	}
}

// CreateBillRequest is the body of POST /bills.
type CreateBillRequest struct {
	BillRequest
	CustomerName  string `json:"customer_name,omitempty" validate:"max=200"`
	CustomerPhone string `json:"customer_phone,omitempty" validate:"max=20"`

	// IdempotencyKey comes from the Idempotency-Key header.
	IdempotencyKey string `json:"-" validate:"max=128"`
}

// InvoiceDocument carries exactly one rendered document.
type InvoiceDocument struct {
	Kind       InvoiceKind         `json:"kind"`
	Estimate   *invoice.Estimate   `json:"estimate,omitempty"`
	TaxInvoice *invoice.TaxInvoice `json:"tax_invoice,omitempty"`
}
