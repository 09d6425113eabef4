package entity

// Strategy names.
const (
	StrategyRule       = "rule"
	StrategyClassifier = "classifier"
)

// Assessment is the common result of a risk assessment strategy.
// Exactly one of Metrics and Prediction is set, depending on the strategy.
type Assessment struct {
	Strategy    string
	Ticker      string
	RiskLevel   string
	LatestClose float64
	Metrics     *RiskMetricsBundle
	Prediction  *PredictionResult
}

// BatchItem is one ticker submitted to a batch run, optionally tagged with a sector.
type BatchItem struct {
	Ticker      string
	Sector      string
	Company     string
	SubIndustry string
}

// Outcome is the per-item result of a batch run: either an assessment or an error.
type Outcome struct {
	Item       BatchItem
	Assessment *Assessment
	Err        error
}

// OK reports whether the item was assessed successfully.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Assessment != nil
}
