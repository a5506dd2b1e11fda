package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
)

const (
	// TaxInvoiceTitle heads the GST document.
	TaxInvoiceTitle = "Tax Invoice"
	// HSNJewellery is the HSN code for articles of jewellery of precious metal.
	HSNJewellery = "7113"
	// HSNJewelleryDescription is the static HSN summary description.
	HSNJewelleryDescription = "Articles of jewellery of precious metal"
	// GSTRateLabel is the combined GST rate printed on the HSN row.
	GSTRateLabel = "3%"
	// HallmarkChargePerItem is the certification surcharge per hallmarked line, in rupees.
	HallmarkChargePerItem = 100
)

// halfGSTRate is the CGST and SGST rate; the combined 3% is fixed.
var halfGSTRate = decimal.RequireFromString("0.015")

// Tax is the GST layer over a bill's final amount.
type Tax struct {
	HallmarkCount   int             `json:"hallmark_count"`
	HallmarkCharges decimal.Decimal `json:"hallmark_charges"`
	Taxable         decimal.Decimal `json:"taxable_amount"`
	CGST            decimal.Decimal `json:"cgst"`
	SGST            decimal.Decimal `json:"sgst"`
	TotalGST        decimal.Decimal `json:"total_gst"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	RoundOff        decimal.Decimal `json:"round_off"`
	Payable         decimal.Decimal `json:"payable"`
}

// ComputeTax derives the GST layer purely from the final amount and the hallmark count.
func ComputeTax(finalAmount decimal.Decimal, hallmarkCount int) Tax {
	if hallmarkCount < 0 {
		hallmarkCount = 0
	}
	hallmark := decimal.NewFromInt(int64(hallmarkCount * HallmarkChargePerItem))
	taxable := finalAmount.Add(hallmark)
	half := billing.Round2(taxable.Mul(halfGSTRate))
	totalGST := half.Add(half)
	grand := taxable.Add(totalGST)
	roundOff := grand.Round(0).Sub(grand)
	return Tax{
		HallmarkCount:   hallmarkCount,
		HallmarkCharges: hallmark,
		Taxable:         taxable,
		CGST:            half,
		SGST:            half,
		TotalGST:        totalGST,
		GrandTotal:      grand,
		RoundOff:        roundOff,
		Payable:         grand.Add(roundOff).Floor(),
	}
}

// HSNRow is one entry of the HSN-wise tax summary.
type HSNRow struct {
	HSN         string          `json:"hsn"`
	Description string          `json:"description"`
	Rate        string          `json:"rate"`
	Taxable     decimal.Decimal `json:"taxable_amount"`
	CGST        decimal.Decimal `json:"cgst"`
	SGST        decimal.Decimal `json:"sgst"`
	TotalGST    decimal.Decimal `json:"total_gst"`
}

// TaxInvoice is the GST invoice view-model.
type TaxInvoice struct {
	Title         string             `json:"title"`
	Header        Header             `json:"header"`
	Rows          []Row              `json:"rows"`
	Totals        billing.BillTotals `json:"totals"`
	Tax           Tax                `json:"tax"`
	Summary       []SummaryLine      `json:"summary"`
	HSNSummary    []HSNRow           `json:"hsn_summary"`
	AmountInWords string             `json:"amount_in_words"`
}

// RenderTaxInvoice formats a priced bill as a GST tax invoice. The HSN summary reuses
// the same Tax values as the totals block.
func RenderTaxInvoice(h Header, bill billing.Bill) TaxInvoice {
	t := bill.Totals
	tax := ComputeTax(t.FinalAmount, bill.HallmarkCount())

	inv := TaxInvoice{
		Title:  TaxInvoiceTitle,
		Header: h,
		Rows:   make([]Row, 0, len(bill.Lines)),
		Totals: t,
		Tax:    tax,
		HSNSummary: []HSNRow{{
			HSN:         HSNJewellery,
			Description: HSNJewelleryDescription,
			Rate:        GSTRateLabel,
			Taxable:     tax.Taxable,
			CGST:        tax.CGST,
			SGST:        tax.SGST,
			TotalGST:    tax.TotalGST,
		}},
		AmountInWords: AmountInWords(tax.Payable.IntPart()),
	}
	for _, l := range bill.Lines {
		hsn := HSNJewellery
		if l.Kind == billing.KindBuyBack {
			hsn = ""
		}
		inv.Rows = append(inv.Rows, lineRows(l, hsn)...)
	}

	inv.Summary = append(inv.Summary, summary("Subtotal", t.SubtotalExcludingMaking))
	if t.BuyBackTotal.IsPositive() {
		inv.Summary = append(inv.Summary, summary("Less: Old Gold", t.BuyBackTotal.Neg()))
	}
	if t.DiscountAmount.IsPositive() {
		inv.Summary = append(inv.Summary, summary("Less: Discount", t.DiscountAmount.Neg()))
	}
	inv.Summary = append(inv.Summary, summary("Making Charges", t.MakingCharges))
	if tax.HallmarkCount > 0 {
		inv.Summary = append(inv.Summary, summary("Hallmark Charges", tax.HallmarkCharges))
	}
	inv.Summary = append(inv.Summary,
		summary("Taxable Amount", tax.Taxable),
		summary("CGST @ 1.5%", tax.CGST),
		summary("SGST @ 1.5%", tax.SGST),
		summary("Total GST", tax.TotalGST),
		summary("Round Off", tax.RoundOff),
		summary("Amount Payable", tax.Payable),
	)
	return inv
}
