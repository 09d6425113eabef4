// Package entity defines the domain models for the prices feature.
package entity

import (
	"strings"
	"time"
)

// PriceBar represents one trading day of OHLCV data for a ticker.
// Bars are immutable once retrieved and are ordered ascending by Date.
type PriceBar struct {
	Symbol string    // Ticker symbol (e.g., "AAPL", "BRK-B")
	Date   time.Time // Trading day (midnight UTC)
	Open   float64   // Opening price
	High   float64   // Highest price of the day
	Low    float64   // Lowest price of the day
	Close  float64   // Closing price
	Volume int64     // Trading volume
}

// Closes extracts the close prices of bars in order.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Dates extracts the trading days of bars in order.
func Dates(bars []PriceBar) []time.Time {
	out := make([]time.Time, len(bars))
	for i, b := range bars {
		out[i] = b.Date
	}
	return out
}

// TradingDay truncates t to midnight UTC of its calendar day.
func TradingDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SanitizeTicker normalizes a ticker for the market data provider.
// Class-share dots are replaced with dashes (BRK.B -> BRK-B).
func SanitizeTicker(ticker string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ticker), ".", "-"))
}
