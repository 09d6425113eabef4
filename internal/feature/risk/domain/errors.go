// Package domain defines domain-level errors for the risk feature.
package domain

import (
	"errors"

	pricedomain "stock_risk/internal/feature/prices/domain"
)

// Domain errors for risk analysis.
var (
	// ErrInsufficientHistory indicates that fewer usable rows remain than the
	// window sizes or the train/test split require.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrInvalidSeries indicates malformed numeric input such as a non-finite
	// or non-positive close price.
	ErrInvalidSeries = errors.New("invalid price series")

	// ErrUnknownStrategy is returned when a requested assessment strategy is not registered.
	ErrUnknownStrategy = errors.New("unknown risk strategy")
)

// Error kinds reported alongside per-ticker failures.
const (
	KindNotFound            = "NotFound"
	KindInsufficientHistory = "InsufficientHistory"
	KindInvalidInput        = "InvalidInput"
	KindInternal            = "Internal"
)

// KindOf classifies err into one of the reported error kinds.
// It returns an empty string for a nil error.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, pricedomain.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientHistory):
		return KindInsufficientHistory
	case errors.Is(err, ErrInvalidSeries), errors.Is(err, ErrUnknownStrategy):
		return KindInvalidInput
	default:
		return KindInternal
	}
}
