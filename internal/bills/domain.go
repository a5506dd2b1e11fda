// Package bills runs the counter billing flow: gather rates, stock and the session
// price memo, price the bill, persist it and render its invoices.
package bills

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/platform/httpx"
)

var (
	// ErrBillNotFound indicates an unknown bill id.
	ErrBillNotFound = fmt.Errorf("bills: bill %w", httpx.ErrNotFound)
	// ErrDuplicateNumber indicates the generated bill number was taken concurrently.
	ErrDuplicateNumber = fmt.Errorf("bills: bill number %w", httpx.ErrDuplicate)
	// ErrIdempotencyConflict indicates a concurrent request stored a bill under the same key.
	ErrIdempotencyConflict = fmt.Errorf("bills: idempotency key %w", httpx.ErrDuplicate)
	// ErrUnknownInvoiceKind indicates an invoice type other than normal or gst.
	ErrUnknownInvoiceKind = fmt.Errorf("bills: unknown invoice type: %w", httpx.ErrValidation)
	// ErrStockChanged indicates stock sold by a concurrent bill between pricing and saving.
	ErrStockChanged = fmt.Errorf("bills: stock changed while saving: %w", httpx.ErrConflict)
)

// Status is the settlement state of a stored bill.
type Status string

const (
	StatusPaid   Status = "PAID"
	StatusUdhari Status = "UDHARI"
)

// Bill is a persisted, priced bill.
type Bill struct {
	ID            uuid.UUID            `json:"id"`
	Number        string               `json:"number"`
	Date          time.Time            `json:"date"`
	CustomerName  string               `json:"customer_name,omitempty"`
	CustomerPhone string               `json:"customer_phone,omitempty"`
	Status        Status               `json:"status"`
	Lines         []billing.PricedLine `json:"lines"`
	Totals        billing.BillTotals   `json:"totals"`
	CreatedAt     time.Time            `json:"created_at"`

	// IdempotencyKey is the client-supplied key the bill was created under, if any.
	IdempotencyKey string `json:"-"`
}

// Priced returns the engine view of the stored bill.
func (b Bill) Priced() billing.Bill {
	return billing.Bill{Lines: b.Lines, Totals: b.Totals}
}

// StatusFor derives the settlement state from totals.
func StatusFor(t billing.BillTotals) Status {
	if t.Udhari().IsPositive() {
		return StatusUdhari
	}
	return StatusPaid
}

// ParseStatus accepts PAID, UDHARI or the empty string (any status).
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case "", StatusPaid, StatusUdhari:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("%w: status must be PAID or UDHARI", httpx.ErrValidation)
	}
}

// Summary is one row of a bill listing.
type Summary struct {
	ID              uuid.UUID       `json:"id"`
	Number          string          `json:"number"`
	Date            time.Time       `json:"date"`
	CustomerName    string          `json:"customer_name,omitempty"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	Status          Status          `json:"status"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// ListFilter narrows a bill listing. A zero Date lists every day.
type ListFilter struct {
	Date    time.Time
	Status  Status
	Page    int
	PerPage int
}

// BillPage is one page of a bill listing.
type BillPage struct {
	Items      []Summary        `json:"items"`
	Pagination httpx.Pagination `json:"pagination"`
}

// BillNumber formats the human bill number, e.g. JP-20261019-0007.
func BillNumber(date time.Time, seq int) string {
	return fmt.Sprintf("JP-%s-%04d", date.Format("20060102"), seq)
}

// InvoiceKind selects the rendered document.
type InvoiceKind string

const (
	InvoiceNormal InvoiceKind = "normal"
	InvoiceGST    InvoiceKind = "gst"
)

// ParseInvoiceKind accepts "normal" (also the empty string) and "gst".
func ParseInvoiceKind(raw string) (InvoiceKind, error) {
	switch InvoiceKind(raw) {
	case "", InvoiceNormal:
		return InvoiceNormal, nil
	case InvoiceGST:
		return InvoiceGST, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownInvoiceKind, raw)
	}
}

// stockConsumption sums sold quantities per stock id.
func stockConsumption(lines []billing.PricedLine) map[int64]int {
	out := make(map[int64]int)
	for _, l := range lines {
		if l.Kind == billing.KindStock {
			out[l.StockID] += l.Quantity
		}
	}
	return out
}
