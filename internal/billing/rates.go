package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StandardKarats lists the gold purities a rate snapshot can carry, ascending.
var StandardKarats = []int{10, 12, 14, 18, 20, 21, 22, 24}

// purityTolerance accepts hallmark purities such as 91.6% (21.984K) as their karat bucket.
var purityTolerance = decimal.NewFromFloat(0.05)

// RateSnapshot is the set of metal and stone rates recorded for one calendar date.
// It is treated as immutable once resolved.
type RateSnapshot struct {
	Date                 time.Time               `json:"date"`
	GoldPerGram          map[int]decimal.Decimal `json:"gold_per_gram"`
	SilverPerGram        decimal.Decimal         `json:"silver_per_gram"`
	DiamondPerCarat      decimal.Decimal         `json:"diamond_per_carat"`
	DefaultMakingPerGram decimal.Decimal         `json:"default_making_per_gram"`
}

// GoldValuer prices a weight of gold at a possibly non-integer carat. It backs buy-back valuation.
type GoldValuer interface {
	GoldValue(weightGrams, carat decimal.Decimal) (decimal.Decimal, error)
}

// IsStandardKarat reports whether k is one of StandardKarats.
func IsStandardKarat(k int) bool {
	for _, s := range StandardKarats {
		if s == k {
			return true
		}
	}
	return false
}

// NearestKarat maps a carat value to the closest standard karat. Ties resolve to the lower karat.
func NearestKarat(carat decimal.Decimal) int {
	best := StandardKarats[0]
	bestDiff := carat.Sub(decimal.NewFromInt(int64(best))).Abs()
	for _, k := range StandardKarats[1:] {
		diff := carat.Sub(decimal.NewFromInt(int64(k))).Abs()
		if diff.LessThan(bestDiff) {
			best, bestDiff = k, diff
		}
	}
	return best
}

// GoldRate returns the per-gram rate for the karat bucket nearest to carat.
func (s RateSnapshot) GoldRate(carat decimal.Decimal) (decimal.Decimal, int, bool) {
	karat := NearestKarat(carat)
	rate, ok := s.GoldPerGram[karat]
	if !ok || !rate.IsPositive() {
		return decimal.Decimal{}, karat, false
	}
	return rate, karat, true
}

// GoldValue prices gold from the snapshot's karat table. Carats that do not sit on a
// standard bucket are rejected rather than interpolated.
func (s RateSnapshot) GoldValue(weightGrams, carat decimal.Decimal) (decimal.Decimal, error) {
	karat := NearestKarat(carat)
	if carat.Sub(decimal.NewFromInt(int64(karat))).Abs().GreaterThan(purityTolerance) {
		return decimal.Decimal{}, fmt.Errorf("%w: %sK does not match a standard karat", ErrUnsupportedPurity, carat.StringFixed(3))
	}
	rate, ok := s.GoldPerGram[karat]
	if !ok || !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: no gold rate for %dK", ErrRateUnavailable, karat)
	}
	return rate.Mul(weightGrams), nil
}
