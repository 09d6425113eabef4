// Package domain defines domain-level errors for the prices feature.
package domain

import "errors"

var (
	// ErrNotFound indicates that no price history exists for the requested ticker.
	// Returned for both analysed tickers and the benchmark series.
	ErrNotFound = errors.New("no price history found")
)
