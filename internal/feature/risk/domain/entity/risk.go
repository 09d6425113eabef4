// Package entity defines the domain models for the risk feature.
package entity

import "time"

// RiskMetricsBundle is a point-in-time snapshot produced by the rule-based path.
// It is recomputed on every request and never persisted.
type RiskMetricsBundle struct {
	Ticker          string
	Volatility      float64 // annualized volatility of daily returns
	VaR95           float64 // whole-series historical VaR
	MaxDrawdown     float64 // <= 0
	Beta            float64 // vs the benchmark; 0 when the benchmark is degenerate
	RiskLevel       string  // composite tier
	Score           int     // number of threshold predicates that fired (0..4)
	LatestClose     float64
	BenchmarkTicker string
}

// FeatureRow is one trading day's engineered inputs for the classifier.
// Target is only meaningful when HasTarget is true; the most recent row never has one.
type FeatureRow struct {
	Date         time.Time
	Close        float64
	Volatility5d float64
	Momentum5d   float64
	VaR95        float64
	Target       int
	HasTarget    bool
}

// Features returns the fixed classifier feature vector {volatility_5d, momentum_5d, VaR_95}.
func (r FeatureRow) Features() []float64 {
	return []float64{r.Volatility5d, r.Momentum5d, r.VaR95}
}

// PredictionResult is the output of the learned path for one ticker.
type PredictionResult struct {
	Ticker             string
	ModelAccuracy      float64
	PredictedClass     int
	PredictedRiskLevel string
	ConfidenceScore    float64
	LatestClose        float64
	LatestVaR95        float64
	LatestVolatility   float64
	TrainRows          int
	TestRows           int
}
