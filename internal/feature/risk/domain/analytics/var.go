package analytics

import (
	"fmt"
	"math"
	"slices"

	"stock_risk/internal/feature/risk/domain"
)

const (
	// DefaultConfidenceLevel is the lower-tail probability of the 95% VaR.
	DefaultConfidenceLevel = 0.05
	// VaRWindow is the trailing window of the rolling VaR.
	VaRWindow = 20
)

// Percentile returns the q-quantile (0 <= q <= 1) of values using linear
// interpolation between the closest order statistics, rank = q*(n-1).
// This is the default definition used by numpy and pandas, not nearest-rank.
// values is not modified. An empty input yields NaN.
func Percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return percentileSorted(sorted, q)
}

func percentileSorted(sorted []float64, q float64) float64 {
	switch {
	case q <= 0:
		return sorted[0]
	case q >= 1:
		return sorted[len(sorted)-1]
	}
	rank := q * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// HistoricalVaR is the confidence-level percentile of the entire return series.
// The composite rule score is calibrated against this whole-series variant.
func HistoricalVaR(returns []float64, confidence float64) (float64, error) {
	if err := checkConfidence(confidence); err != nil {
		return 0, err
	}
	if len(returns) < 2 {
		return 0, fmt.Errorf("VaR needs at least 2 returns, got %d: %w", len(returns), domain.ErrInsufficientHistory)
	}
	return Percentile(returns, confidence), nil
}

// RollingVaR is the confidence-level percentile of each trailing window of
// returns. The first window-1 positions are undefined.
func RollingVaR(returns []float64, window int, confidence float64) ([]float64, error) {
	if err := checkConfidence(confidence); err != nil {
		return nil, err
	}
	if window < 2 {
		return nil, fmt.Errorf("VaR window must be at least 2, got %d: %w", window, domain.ErrInsufficientHistory)
	}
	out := undefinedSeries(len(returns))
	buf := make([]float64, window)
	for j := window - 1; j < len(returns); j++ {
		copy(buf, returns[j-window+1:j+1])
		slices.Sort(buf)
		out[j] = percentileSorted(buf, confidence)
	}
	return out, nil
}

func checkConfidence(confidence float64) error {
	if !(confidence > 0 && confidence < 1) {
		return fmt.Errorf("confidence level %v outside (0,1): %w", confidence, domain.ErrInvalidSeries)
	}
	return nil
}
