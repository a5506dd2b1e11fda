package invoice

import "strings"

var (
	unitWords = []string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen",
	}
	tensWords = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

const (
	crore    = 10_000_000
	lakh     = 100_000
	thousand = 1_000
)

// AmountInWords spells a rupee amount using Indian grouping (crore, lakh, thousand,
// hundred) followed by "Only".
func AmountInWords(amount int64) string {
	if amount == 0 {
		return "Zero Only"
	}
	if amount < 0 {
		return "Minus " + indianWords(-amount) + " Only"
	}
	return indianWords(amount) + " Only"
}

func indianWords(n int64) string {
	parts := make([]string, 0, 5)
	if n >= crore {
		parts = append(parts, indianWords(n/crore)+" Crore")
		n %= crore
	}
	if n >= lakh {
		parts = append(parts, twoDigitWords(n/lakh)+" Lakh")
		n %= lakh
	}
	if n >= thousand {
		parts = append(parts, twoDigitWords(n/thousand)+" Thousand")
		n %= thousand
	}
	if n >= 100 {
		parts = append(parts, unitWords[n/100]+" Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, twoDigitWords(n))
	}
	return strings.Join(parts, " ")
}

func twoDigitWords(n int64) string {
	if n < 20 {
		return unitWords[n]
	}
	w := tensWords[n/10]
	if n%10 != 0 {
		w += " " + unitWords[n%10]
	}
	return w
}
