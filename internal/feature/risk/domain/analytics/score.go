package analytics

// Composite risk tiers.
const (
	LevelLow      = "Low Risk"
	LevelModerate = "Moderate Risk"
	LevelHigh     = "High Risk"
)

// Thresholds are the cut-offs of the composite vote. Each predicate contributes 0 or 1.
type Thresholds struct {
	Volatility float64 // fires when annualized volatility > Volatility
	VaR        float64 // fires when VaR < VaR
	Drawdown   float64 // fires when max drawdown < Drawdown
	Beta       float64 // fires when beta > Beta
}

// DefaultThresholds are the calibrated composite cut-offs.
var DefaultThresholds = Thresholds{
	Volatility: 0.03,
	VaR:        -0.03,
	Drawdown:   -0.20,
	Beta:       1.2,
}

// RiskInputs are the whole-series indicators fed to the composite vote.
type RiskInputs struct {
	AnnualizedVolatility float64
	VaR                  float64
	MaxDrawdown          float64
	Beta                 float64
}

// CompositeScore counts how many threshold predicates fire (0..4).
func CompositeScore(in RiskInputs, th Thresholds) int {
	score := 0
	if in.AnnualizedVolatility > th.Volatility {
		score++
	}
	if in.VaR < th.VaR {
		score++
	}
	if in.MaxDrawdown < th.Drawdown {
		score++
	}
	if in.Beta > th.Beta {
		score++
	}
	return score
}

// RiskLevelForScore maps a composite score to its tier.
func RiskLevelForScore(score int) string {
	switch {
	case score >= 3:
		return LevelHigh
	case score == 2:
		return LevelModerate
	default:
		return LevelLow
	}
}
