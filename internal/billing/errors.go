package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrRatesMissing indicates no rate snapshot was recorded for the requested date.
	ErrRatesMissing = errors.New("billing: rates missing for date")
	// ErrRateUnavailable indicates the snapshot has no usable rate for the item's metal/karat.
	ErrRateUnavailable = errors.New("billing: rate unavailable")
	// ErrUnsupportedPurity indicates a buy-back purity the rate source cannot price.
	ErrUnsupportedPurity = errors.New("billing: unsupported purity")
	// ErrInsufficientStock indicates requested quantity exceeds available stock.
	ErrInsufficientStock = errors.New("billing: insufficient stock")
	// ErrNoItems indicates a bill without any line of value.
	ErrNoItems = errors.New("billing: bill requires at least one item")
	// ErrInvalidExternalItem indicates an ad-hoc line with missing name or bad price.
	ErrInvalidExternalItem = errors.New("billing: invalid external item")
	// ErrInvalidOverride indicates a non-numeric or non-positive override rate.
	ErrInvalidOverride = errors.New("billing: invalid rate override")
	// ErrInvalidQuantity indicates a zero or negative quantity.
	ErrInvalidQuantity = errors.New("billing: quantity must be positive")
	// ErrInvalidWeight indicates a zero, negative or non-numeric weight.
	ErrInvalidWeight = errors.New("billing: weight must be positive")
	// ErrInvalidAmount indicates a negative or non-numeric discount or payment.
	ErrInvalidAmount = errors.New("billing: invalid amount")
	// ErrStockNotFound indicates a stock line referencing an unknown stock id.
	ErrStockNotFound = errors.New("billing: stock item not found")
)

// InsufficientStockError reports the stock item that cannot cover the bill.
type InsufficientStockError struct {
	StockID   int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("billing: insufficient stock for item %d: requested %d, available %d", e.StockID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// LineError ties a pricing failure to the position of the offending line.
type LineError struct {
	Index int
	Kind  LineKind
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Index+1, e.Kind, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
