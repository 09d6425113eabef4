// Package analytics implements the numeric risk indicators: returns, rolling
// volatility and momentum, historical VaR, drawdown, beta, the composite rule
// score, label construction and the classifier train/predict cycle.
//
// Rolling series have the same length as their input. Positions without a full
// trailing window hold NaN and are treated as undefined; callers drop them and
// never impute.
package analytics

import (
	"fmt"
	"math"

	"stock_risk/internal/feature/risk/domain"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily volatility.
const TradingDaysPerYear = 252

// ValidateCloses rejects series containing non-finite or non-positive prices.
func ValidateCloses(closes []float64) error {
	for i, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			return fmt.Errorf("close[%d]=%v: %w", i, c, domain.ErrInvalidSeries)
		}
	}
	return nil
}

// DailyReturns returns simple returns close[i]/close[i-1]-1 for i >= 1.
// The result has length len(closes)-1; element j belongs to price index j+1.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out[i-1] = closes[i]/closes[i-1] - 1
	}
	return out
}

// RollingVolatility is the unbiased sample standard deviation of each trailing
// window of returns. The first window-1 positions are undefined.
func RollingVolatility(returns []float64, window int) []float64 {
	out := undefinedSeries(len(returns))
	if window < 2 {
		return out
	}
	for j := window - 1; j < len(returns); j++ {
		out[j] = stat.StdDev(returns[j-window+1:j+1], nil)
	}
	return out
}

// RollingMomentum is close[i]/close[i-window]-1 over the price series.
// The first window positions are undefined.
func RollingMomentum(closes []float64, window int) []float64 {
	out := undefinedSeries(len(closes))
	if window < 1 {
		return out
	}
	for i := window; i < len(closes); i++ {
		out[i] = closes[i]/closes[i-window] - 1
	}
	return out
}

// AnnualizedVolatility is the unbiased sample standard deviation of the whole
// return series scaled by sqrt(252). It uses the same estimator as
// RollingVolatility so the composite thresholds stay comparable.
func AnnualizedVolatility(returns []float64) (float64, error) {
	if len(returns) < 2 {
		return 0, fmt.Errorf("volatility needs at least 2 returns, got %d: %w", len(returns), domain.ErrInsufficientHistory)
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear), nil
}

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Defined reports whether a rolling value is present.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}
