package invoice

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var indianEnglish = language.MustParse("en-IN")

// FormatINR renders an amount with the rupee sign, Indian digit grouping and two decimals.
func FormatINR(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	f, _ := amount.Round(2).Float64()
	p := message.NewPrinter(indianEnglish)
	return sign + "₹" + p.Sprint(number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// FormatGrams renders a weight to three decimals.
func FormatGrams(w decimal.Decimal) string {
	return w.StringFixed(3) + " g"
}
