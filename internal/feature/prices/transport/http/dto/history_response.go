// Package dto defines data transfer objects for the prices HTTP API.
package dto

// ClosePoint is one point of the recent price trend chart.
type ClosePoint struct {
	Date  string  `json:"date"`  // YYYY-MM-DD
	Close float64 `json:"close"` // closing price
}

// ClearResponse reports how many stored bars were removed.
type ClearResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// ErrorResponse is the error body returned by the prices endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
