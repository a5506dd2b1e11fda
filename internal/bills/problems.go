package bills

import (
	"net/http"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/platform/httpx"
)

// pricingProblems maps engine failures to problem responses. Codes match the
// pricing failure reasons exported as metrics.
var pricingProblems = []httpx.ProblemKind{
	{Err: billing.ErrRatesMissing, Status: http.StatusConflict, Title: "Rates Missing", Code: "rates_missing"},
	{Err: billing.ErrRateUnavailable, Status: http.StatusConflict, Title: "Rate Unavailable", Code: "rate_unavailable"},
	{Err: billing.ErrInsufficientStock, Status: http.StatusConflict, Title: "Insufficient Stock", Code: "insufficient_stock"},
	{Err: billing.ErrStockNotFound, Status: http.StatusNotFound, Title: "Stock Not Found", Code: "stock_not_found"},
	{Err: billing.ErrUnsupportedPurity, Status: http.StatusUnprocessableEntity, Title: "Unsupported Purity", Code: "unsupported_purity"},
	{Err: billing.ErrNoItems, Status: http.StatusUnprocessableEntity, Title: "No Items", Code: "no_items"},
	{Err: billing.ErrInvalidExternalItem, Status: http.StatusUnprocessableEntity, Title: "Invalid External Item", Code: "invalid_external_item"},
	{Err: billing.ErrInvalidOverride, Status: http.StatusUnprocessableEntity, Title: "Invalid Override", Code: "invalid_override"},
	{Err: billing.ErrInvalidQuantity, Status: http.StatusUnprocessableEntity, Title: "Invalid Quantity", Code: "invalid_quantity"},
	{Err: billing.ErrInvalidWeight, Status: http.StatusUnprocessableEntity, Title: "Invalid Weight", Code: "invalid_weight"},
	{Err: billing.ErrInvalidAmount, Status: http.StatusUnprocessableEntity, Title: "Invalid Amount", Code: "invalid_amount"},
}

func respondProblem(w http.ResponseWriter, err error) {
	httpx.RespondErrorWith(w, err, pricingProblems)
}
