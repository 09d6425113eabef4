// Package dto defines data transfer objects for the risk HTTP API.
package dto

import (
	"stock_risk/internal/feature/risk/domain"
	"stock_risk/internal/feature/risk/domain/entity"

	"github.com/shopspring/decimal"
)

// PredictionResponse is the learned-path result consumed by the front end.
type PredictionResponse struct {
	Ticker             string  `json:"ticker"`
	ModelAccuracy      float64 `json:"model_accuracy"`
	PredictedRiskLevel string  `json:"predicted_risk_level"`
	PredictedClass     int     `json:"predicted_class"`
	ConfidenceScore    float64 `json:"confidence_score"`
	LatestClose        float64 `json:"latest_close"`
	LatestVaR95        float64 `json:"latest_VaR_95"`
	LatestVolatility   float64 `json:"latest_volatility"`
	TrainRows          int     `json:"train_rows"`
	TestRows           int     `json:"test_rows"`
}

// MetricsResponse is the rule-path indicator bundle.
type MetricsResponse struct {
	Ticker      string  `json:"ticker"`
	Volatility  float64 `json:"volatility"`
	VaR95       float64 `json:"VaR_95"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Beta        float64 `json:"beta"`
	Benchmark   string  `json:"benchmark"`
	Score       int     `json:"score"`
	RiskLevel   string  `json:"risk_level"`
	LatestClose float64 `json:"latest_close"`
}

// AssessmentResponse wraps either strategy's result.
type AssessmentResponse struct {
	Strategy    string              `json:"strategy"`
	Ticker      string              `json:"ticker"`
	RiskLevel   string              `json:"risk_level"`
	LatestClose float64             `json:"latest_close"`
	Metrics     *MetricsResponse    `json:"metrics,omitempty"`
	Prediction  *PredictionResponse `json:"prediction,omitempty"`
}

// TickerError is a per-ticker failure rendered inside a successful response.
type TickerError struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
	Kind   string `json:"kind"`
}

// ErrorResponse is returned for structurally invalid requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StoreResult is the outcome of ingesting and analysing one symbol.
type StoreResult struct {
	Symbol   string `json:"symbol"`
	Message  string `json:"message,omitempty"`
	Analysis any    `json:"analysis,omitempty"`
	Error    string `json:"error,omitempty"`
}

// StoreResponse is the body of POST /api/store-stocks.
type StoreResponse struct {
	Results []StoreResult `json:"results"`
}

// BatchRequest is the body of POST /api/risk/batch.
type BatchRequest struct {
	Tickers  []string `json:"tickers" binding:"required,min=1,dive,required"`
	Strategy string   `json:"strategy"`
}

// BatchResult is one entry of a batch response. Exactly one of Assessment and Error is set.
type BatchResult struct {
	Ticker     string              `json:"ticker"`
	Assessment *AssessmentResponse `json:"assessment,omitempty"`
	Error      string              `json:"error,omitempty"`
	Kind       string              `json:"kind,omitempty"`
}

// BatchResponse is the body returned by POST /api/risk/batch.
type BatchResponse struct {
	Strategy  string        `json:"strategy"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Results   []BatchResult `json:"results"`
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// NewPredictionResponse converts a PredictionResult, rounding ratios to 4 places and prices to 2.
func NewPredictionResponse(p *entity.PredictionResult) *PredictionResponse {
	if p == nil {
		return nil
	}
	return &PredictionResponse{
		Ticker:             p.Ticker,
		ModelAccuracy:      round(p.ModelAccuracy, 4),
		PredictedRiskLevel: p.PredictedRiskLevel,
		PredictedClass:     p.PredictedClass,
		ConfidenceScore:    round(p.ConfidenceScore, 4),
		LatestClose:        round(p.LatestClose, 2),
		LatestVaR95:        round(p.LatestVaR95, 4),
		LatestVolatility:   round(p.LatestVolatility, 4),
		TrainRows:          p.TrainRows,
		TestRows:           p.TestRows,
	}
}

// NewMetricsResponse converts a RiskMetricsBundle with the same rounding rules.
func NewMetricsResponse(m *entity.RiskMetricsBundle) *MetricsResponse {
	if m == nil {
		return nil
	}
	return &MetricsResponse{
		Ticker:      m.Ticker,
		Volatility:  round(m.Volatility, 4),
		VaR95:       round(m.VaR95, 4),
		MaxDrawdown: round(m.MaxDrawdown, 4),
		Beta:        round(m.Beta, 4),
		Benchmark:   m.BenchmarkTicker,
		Score:       m.Score,
		RiskLevel:   m.RiskLevel,
		LatestClose: round(m.LatestClose, 2),
	}
}

// NewAssessmentResponse converts an Assessment.
func NewAssessmentResponse(a entity.Assessment) *AssessmentResponse {
	return &AssessmentResponse{
		Strategy:    a.Strategy,
		Ticker:      a.Ticker,
		RiskLevel:   a.RiskLevel,
		LatestClose: round(a.LatestClose, 2),
		Metrics:     NewMetricsResponse(a.Metrics),
		Prediction:  NewPredictionResponse(a.Prediction),
	}
}

// NewTickerError renders err with its error kind.
func NewTickerError(ticker string, err error) TickerError {
	return TickerError{Ticker: ticker, Error: err.Error(), Kind: domain.KindOf(err)}
}

// NewBatchResponse converts ordered batch outcomes.
func NewBatchResponse(strategy string, outcomes []entity.Outcome) BatchResponse {
	resp := BatchResponse{Strategy: strategy, Results: make([]BatchResult, 0, len(outcomes))}
	for _, o := range outcomes {
		r := BatchResult{Ticker: o.Item.Ticker}
		if o.OK() {
			r.Assessment = NewAssessmentResponse(*o.Assessment)
			resp.Succeeded++
		} else if o.Err != nil {
			r.Error = o.Err.Error()
			r.Kind = domain.KindOf(o.Err)
			resp.Failed++
		}
		resp.Results = append(resp.Results, r)
	}
	return resp
}
