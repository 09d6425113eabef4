package analytics

import (
	"fmt"
	"time"

	"stock_risk/internal/feature/risk/domain"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaxDrawdown is the most negative (close-runmax)/runmax over the series, where
// runmax is the running maximum close. The result is <= 0 and is exactly 0 when
// the series never falls below a previous peak.
func MaxDrawdown(closes []float64) (float64, error) {
	if len(closes) == 0 {
		return 0, fmt.Errorf("drawdown needs at least 1 price: %w", domain.ErrInsufficientHistory)
	}
	peak := closes[0]
	worst := 0.0
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if dd := (c - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst, nil
}

// AlignReturns inner-joins two dated return series on trading day and returns
// the paired values in the order of the stock series.
func AlignReturns(stockDates []time.Time, stock []float64, marketDates []time.Time, market []float64) ([]float64, []float64) {
	byDay := make(map[time.Time]float64, len(market))
	for i, d := range marketDates {
		if i < len(market) {
			byDay[tradingDay(d)] = market[i]
		}
	}
	s := make([]float64, 0, len(stock))
	m := make([]float64, 0, len(stock))
	for i, d := range stockDates {
		if i >= len(stock) {
			break
		}
		if mv, ok := byDay[tradingDay(d)]; ok {
			s = append(s, stock[i])
			m = append(m, mv)
		}
	}
	return s, m
}

// Beta is cov(stock, market)/var(market) over aligned return series, both with
// the unbiased estimator. When the market returns have zero variance, beta is
// defined as 0 and degenerate is true so the caller can log it.
func Beta(stock, market []float64) (beta float64, degenerate bool, err error) {
	if len(stock) != len(market) {
		return 0, false, fmt.Errorf("beta series length mismatch %d != %d: %w", len(stock), len(market), domain.ErrInvalidSeries)
	}
	if len(market) < 2 {
		return 0, false, fmt.Errorf("beta needs at least 2 aligned returns, got %d: %w", len(market), domain.ErrInsufficientHistory)
	}
	if floats.Min(market) == floats.Max(market) {
		return 0, true, nil
	}
	v := stat.Variance(market, nil)
	if v == 0 {
		return 0, true, nil
	}
	return stat.Covariance(stock, market, nil) / v, false, nil
}

func tradingDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
