package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMakingChargePerGram is the fallback making charge (₹/gram) used when neither
// the category configuration nor the day's rates provide one.
const DefaultMakingChargePerGram = 1150

var defaultMakingRate = decimal.NewFromInt(DefaultMakingChargePerGram)

// MakingRate is one configured making charge. An empty Material is the category default.
type MakingRate struct {
	Category string          `json:"category"`
	Material string          `json:"material,omitempty"`
	PerGram  decimal.Decimal `json:"per_gram"`
}

type makingKey struct {
	category string
	material string
}

// MakingConfig resolves per-category making charges.
type MakingConfig struct {
	rates map[makingKey]decimal.Decimal
}

// NewMakingConfig indexes the configured rates. Non-positive rates are ignored.
func NewMakingConfig(rates []MakingRate) MakingConfig {
	cfg := MakingConfig{rates: make(map[makingKey]decimal.Decimal, len(rates))}
	for _, r := range rates {
		if !r.PerGram.IsPositive() {
			continue
		}
		cfg.rates[makingKey{category: normalize(r.Category), material: normalize(r.Material)}] = r.PerGram
	}
	return cfg
}

// RateFor looks up (category, material), then (category, default), then the global fallback.
func (c MakingConfig) RateFor(category, material string) decimal.Decimal {
	cat := normalize(category)
	if rate, ok := c.rates[makingKey{category: cat, material: normalize(material)}]; ok {
		return rate
	}
	if rate, ok := c.rates[makingKey{category: cat}]; ok {
		return rate
	}
	return defaultMakingRate
}

// Len returns the number of configured entries.
func (c MakingConfig) Len() int {
	return len(c.rates)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
