package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
)

// BillingMetrics counts pricing outcomes.
type BillingMetrics struct {
	priced   *prometheus.CounterVec
	failures *prometheus.CounterVec
	amount   prometheus.Histogram
}

// NewBillingMetrics registers the billing collectors. A nil registerer uses the default one.
func NewBillingMetrics(registerer prometheus.Registerer) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	priced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jewelpos_bills_priced_total",
		Help: "Bills priced successfully, by operation (quote or create).",
	}, []string{"operation"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jewelpos_pricing_failures_total",
		Help: "Pricing failures by operation and error kind.",
	}, []string{"operation", "reason"})
	amount := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "jewelpos_bill_final_amount_rupees",
		Help:    "Final amount of created bills.",
		Buckets: prometheus.ExponentialBuckets(1000, 4, 8),
	})
	registerer.MustRegister(priced, failures, amount)
	return &BillingMetrics{priced: priced, failures: failures, amount: amount}
}

// Priced records a successful pricing call.
func (m *BillingMetrics) Priced(operation string) {
	if m == nil {
		return
	}
	m.priced.WithLabelValues(operation).Inc()
}

// Created records the final amount of a persisted bill.
func (m *BillingMetrics) Created(finalAmount float64) {
	if m == nil {
		return
	}
	m.amount.Observe(finalAmount)
}

// Failed records a pricing failure classified by FailureReason.
func (m *BillingMetrics) Failed(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.failures.WithLabelValues(operation, FailureReason(err)).Inc()
}

var failureReasons = []struct {
	err    error
	reason string
}{
	{billing.ErrRatesMissing, "rates_missing"},
	{billing.ErrRateUnavailable, "rate_unavailable"},
	{billing.ErrUnsupportedPurity, "unsupported_purity"},
	{billing.ErrInsufficientStock, "insufficient_stock"},
	{billing.ErrStockNotFound, "stock_not_found"},
	{billing.ErrNoItems, "no_items"},
	{billing.ErrInvalidExternalItem, "invalid_external_item"},
	{billing.ErrInvalidOverride, "invalid_override"},
	{billing.ErrInvalidQuantity, "invalid_quantity"},
	{billing.ErrInvalidWeight, "invalid_weight"},
	{billing.ErrInvalidAmount, "invalid_amount"},
}

// FailureReason maps an error to a bounded label value.
func FailureReason(err error) string {
	for _, fr := range failureReasons {
		if errors.Is(err, fr.err) {
			return fr.reason
		}
	}
	return "internal"
}
