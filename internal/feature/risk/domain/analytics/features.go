package analytics

import (
	"fmt"
	"time"

	"stock_risk/internal/feature/risk/domain"
	"stock_risk/internal/feature/risk/domain/entity"
)

// Window sizes of the engineered features.
const (
	VolatilityWindow = 5
	MomentumWindow   = 5
)

// BuildFeatureRows derives one FeatureRow per trading day that has a full
// volatility, momentum and rolling VaR history. Rows are ascending by date.
//
// Return j belongs to price index j+1. A row at return j is labelled with
// returns[j+1] < VaR[j], so the final row never carries a target.
func BuildFeatureRows(dates []time.Time, closes []float64, confidence float64) ([]entity.FeatureRow, error) {
	if len(dates) != len(closes) {
		return nil, fmt.Errorf("%d dates but %d closes: %w", len(dates), len(closes), domain.ErrInvalidSeries)
	}
	if err := ValidateCloses(closes); err != nil {
		return nil, err
	}

	returns := DailyReturns(closes)
	vol := RollingVolatility(returns, VolatilityWindow)
	mom := RollingMomentum(closes, MomentumWindow)
	rollingVaR, err := RollingVaR(returns, VaRWindow, confidence)
	if err != nil {
		return nil, err
	}

	var rows []entity.FeatureRow
	for j := range returns {
		if !Defined(vol[j]) || !Defined(mom[j+1]) || !Defined(rollingVaR[j]) {
			continue
		}
		row := entity.FeatureRow{
			Date:         dates[j+1],
			Close:        closes[j+1],
			Volatility5d: vol[j],
			Momentum5d:   mom[j+1],
			VaR95:        rollingVaR[j],
		}
		if j+1 < len(returns) {
			row.HasTarget = true
			if returns[j+1] < rollingVaR[j] {
				row.Target = 1
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TrainingRows keeps only the rows that carry a target.
func TrainingRows(rows []entity.FeatureRow) []entity.FeatureRow {
	out := make([]entity.FeatureRow, 0, len(rows))
	for _, r := range rows {
		if r.HasTarget {
			out = append(out, r)
		}
	}
	return out
}
