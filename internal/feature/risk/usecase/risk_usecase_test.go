package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	pricedomain "stock_risk/internal/feature/prices/domain"
	priceentity "stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/risk/domain"
	"stock_risk/internal/feature/risk/domain/analytics"
	"stock_risk/internal/feature/risk/domain/entity"
	"stock_risk/internal/feature/risk/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPriceHistory is an in-memory PriceHistoryProvider keyed by ticker.
type mockPriceHistory struct {
	mu    sync.Mutex
	bars  map[string][]priceentity.PriceBar
	err   map[string]error
	calls map[string]int
}

func newMockPriceHistory() *mockPriceHistory {
	return &mockPriceHistory{
		bars:  map[string][]priceentity.PriceBar{},
		err:   map[string]error{},
		calls: map[string]int{},
	}
}

func (m *mockPriceHistory) GetPriceHistory(_ context.Context, ticker string, _ int) ([]priceentity.PriceBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[ticker]++
	if err, ok := m.err[ticker]; ok {
		return nil, err
	}
	bars, ok := m.bars[ticker]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ticker, pricedomain.ErrNotFound)
	}
	return bars, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveAnalysis(strategy, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, strategy+":"+outcome)
}

func barsFrom(symbol string, closes []float64) []priceentity.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]priceentity.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = priceentity.PriceBar{Symbol: symbol, Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return out
}

func walk(n int, seed uint64, sigma float64) []float64 {
	rng := rand.New(rand.NewPCG(seed, 1))
	out := []float64{100}
	for len(out) < n {
		out = append(out, out[len(out)-1]*(1+rng.NormFloat64()*sigma))
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func newUsecase(prices usecase.PriceHistoryProvider, obs usecase.AnalysisObserver) *usecase.RiskUsecase {
	cfg := analytics.DefaultClassifierConfig
	cfg.Trees = 10
	return usecase.NewRiskUsecase(prices,
		usecase.Config{BenchmarkTicker: "^GSPC", Lookback: 252, Workers: 4},
		obs,
		usecase.NewRuleStrategy(analytics.DefaultThresholds, analytics.DefaultConfidenceLevel, "^GSPC"),
		usecase.NewClassifierStrategy(cfg, analytics.DefaultConfidenceLevel),
	)
}

func TestAnalyzeStockRisk(t *testing.T) {
	prices := newMockPriceHistory()
	prices.bars["^GSPC"] = barsFrom("^GSPC", walk(120, 1, 0.01))
	prices.bars["AAPL"] = barsFrom("AAPL", walk(120, 2, 0.02))
	obs := &recordingObserver{}
	uc := newUsecase(prices, obs)

	m, err := uc.AnalyzeStockRisk(context.Background(), "aapl")
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "AAPL", m.Ticker)
	assert.Equal(t, "^GSPC", m.BenchmarkTicker)
	assert.LessOrEqual(t, m.MaxDrawdown, 0.0)
	assert.Equal(t, analytics.RiskLevelForScore(m.Score), m.RiskLevel)
	assert.Equal(t, prices.bars["AAPL"][119].Close, m.LatestClose)
	assert.Equal(t, []string{"rule:ok"}, obs.outcomes)
}

func TestAnalyzeStockRisk_FlatSeriesIsLowRisk(t *testing.T) {
	prices := newMockPriceHistory()
	prices.bars["^GSPC"] = barsFrom("^GSPC", flat(30, 4000))
	prices.bars["FLAT"] = barsFrom("FLAT", flat(30, 50))
	uc := newUsecase(prices, nil)

	m, err := uc.AnalyzeStockRisk(context.Background(), "FLAT")
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.Volatility)
	assert.Equal(t, 0.0, m.VaR95)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.Beta)
	assert.Equal(t, 0, m.Score)
	assert.Equal(t, analytics.LevelLow, m.RiskLevel)
}

func TestAnalyzeStockRisk_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *mockPriceHistory)
		kind  string
	}{
		{
			name: "ticker not found",
			setup: func(p *mockPriceHistory) {
				p.bars["^GSPC"] = barsFrom("^GSPC", walk(30, 1, 0.01))
			},
			kind: domain.KindNotFound,
		},
		{
			name: "benchmark not found",
			setup: func(p *mockPriceHistory) {
				p.bars["AAPL"] = barsFrom("AAPL", walk(30, 1, 0.01))
			},
			kind: domain.KindNotFound,
		},
		{
			name: "too short",
			setup: func(p *mockPriceHistory) {
				p.bars["^GSPC"] = barsFrom("^GSPC", walk(30, 1, 0.01))
				p.bars["AAPL"] = barsFrom("AAPL", []float64{100, 101})
			},
			kind: domain.KindInsufficientHistory,
		},
		{
			name: "bad close",
			setup: func(p *mockPriceHistory) {
				p.bars["^GSPC"] = barsFrom("^GSPC", walk(30, 1, 0.01))
				p.bars["AAPL"] = barsFrom("AAPL", []float64{100, 0, 101})
			},
			kind: domain.KindInvalidInput,
		},
		{
			name: "store failure",
			setup: func(p *mockPriceHistory) {
				p.bars["^GSPC"] = barsFrom("^GSPC", walk(30, 1, 0.01))
				p.err["AAPL"] = errors.New("connection refused")
			},
			kind: domain.KindInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices := newMockPriceHistory()
			tt.setup(prices)
			_, err := newUsecase(prices, nil).AnalyzeStockRisk(context.Background(), "AAPL")
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestPredictStockRisk(t *testing.T) {
	prices := newMockPriceHistory()
	prices.bars["MSFT"] = barsFrom("MSFT", walk(200, 3, 0.02))
	uc := newUsecase(prices, nil)

	p, err := uc.PredictStockRisk(context.Background(), "MSFT")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "MSFT", p.Ticker)
	assert.Contains(t, []int{0, 1}, p.PredictedClass)
	assert.Equal(t, analytics.InterpretPrediction(p.PredictedClass, p.ConfidenceScore), p.PredictedRiskLevel)
	assert.GreaterOrEqual(t, p.ConfidenceScore, 0.5)
	assert.Equal(t, prices.bars["MSFT"][199].Close, p.LatestClose)
	assert.Positive(t, p.TrainRows)
	assert.Positive(t, p.TestRows)
	// the learned path never needs the benchmark
	assert.Zero(t, prices.calls["^GSPC"])
}

func TestPredictStockRisk_ShortSeries(t *testing.T) {
	prices := newMockPriceHistory()
	prices.bars["TINY"] = barsFrom("TINY", []float64{100, 102, 101, 105, 103})

	_, err := newUsecase(prices, nil).PredictStockRisk(context.Background(), "TINY")
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestAssess_UnknownStrategy(t *testing.T) {
	_, err := newUsecase(newMockPriceHistory(), nil).Assess(context.Background(), "AAPL", "astrology")
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func TestAssessBatch_PerItemOutcomesInOrder(t *testing.T) {
	prices := newMockPriceHistory()
	prices.bars["^GSPC"] = barsFrom("^GSPC", walk(60, 1, 0.01))
	prices.bars["AAA"] = barsFrom("AAA", walk(60, 2, 0.02))
	prices.bars["CCC"] = barsFrom("CCC", walk(60, 3, 0.03))
	prices.bars["DDD"] = barsFrom("DDD", []float64{10})
	obs := &recordingObserver{}
	uc := newUsecase(prices, obs)

	items := []entity.BatchItem{
		{Ticker: "AAA", Sector: "Tech"},
		{Ticker: "BBB", Sector: "Energy"},
		{Ticker: "CCC", Sector: "Tech"},
		{Ticker: "DDD", Sector: "Utilities"},
	}
	out, err := uc.AssessBatch(context.Background(), items, entity.StrategyRule)
	require.NoError(t, err)
	require.Len(t, out, 4)

	for i, o := range out {
		assert.Equal(t, items[i], o.Item)
	}
	assert.True(t, out[0].OK())
	assert.Equal(t, "AAA", out[0].Assessment.Ticker)
	assert.ErrorIs(t, out[1].Err, pricedomain.ErrNotFound)
	assert.True(t, out[2].OK())
	assert.ErrorIs(t, out[3].Err, domain.ErrInsufficientHistory)

	// benchmark is fetched once for the whole batch
	assert.Equal(t, 1, prices.calls["^GSPC"])
	assert.Len(t, obs.outcomes, 4)
}

func TestAssessBatch_BenchmarkMissingFailsEveryItem(t *testing.T) {
	prices := newMockPriceHistory()
	prices.bars["AAA"] = barsFrom("AAA", walk(60, 2, 0.02))

	out, err := newUsecase(prices, nil).AssessBatch(context.Background(),
		[]entity.BatchItem{{Ticker: "AAA"}, {Ticker: "BBB"}}, entity.StrategyRule)
	require.NoError(t, err)
	for _, o := range out {
		assert.ErrorIs(t, o.Err, pricedomain.ErrNotFound)
	}
}

func TestAssessBatch_Classifier(t *testing.T) {
	prices := newMockPriceHistory()
	prices.bars["AAA"] = barsFrom("AAA", walk(150, 2, 0.02))
	prices.bars["BBB"] = barsFrom("BBB", walk(10, 3, 0.02))

	out, err := newUsecase(prices, nil).AssessBatch(context.Background(),
		[]entity.BatchItem{{Ticker: "AAA"}, {Ticker: "BBB"}}, entity.StrategyClassifier)
	require.NoError(t, err)
	require.True(t, out[0].OK())
	assert.NotNil(t, out[0].Assessment.Prediction)
	assert.ErrorIs(t, out[1].Err, domain.ErrInsufficientHistory)
}

func TestAssessBatch_CancelledContext(t *testing.T) {
	prices := newMockPriceHistory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := newUsecase(prices, nil).AssessBatch(ctx,
		[]entity.BatchItem{{Ticker: "AAA"}, {Ticker: "BBB"}}, entity.StrategyClassifier)
	require.NoError(t, err)
	for _, o := range out {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestAssessBatch_UnknownStrategy(t *testing.T) {
	_, err := newUsecase(newMockPriceHistory(), nil).AssessBatch(context.Background(), nil, "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

// panickingStrategy panics for one ticker and succeeds for the others.
type panickingStrategy struct {
	ticker string
}

func (p panickingStrategy) Name() string         { return "panicking" }
func (p panickingStrategy) NeedsBenchmark() bool { return false }

func (p panickingStrategy) Assess(in usecase.AssessmentInput) (entity.Assessment, error) {
	if in.Ticker == p.ticker {
		panic("runtime error: index out of range [0] with length 0")
	}
	return entity.Assessment{Ticker: in.Ticker}, nil
}

func TestAssessBatch_PanicBecomesItemError(t *testing.T) {
	prices := newMockPriceHistory()
	prices.bars["AAA"] = barsFrom("AAA", walk(10, 1, 0.01))
	prices.bars["BOOM"] = barsFrom("BOOM", walk(10, 2, 0.01))
	prices.bars["CCC"] = barsFrom("CCC", walk(10, 3, 0.01))
	obs := &recordingObserver{}
	uc := usecase.NewRiskUsecase(prices, usecase.Config{Workers: 2}, obs, panickingStrategy{ticker: "BOOM"})

	out, err := uc.AssessBatch(context.Background(),
		[]entity.BatchItem{{Ticker: "AAA"}, {Ticker: "BOOM"}, {Ticker: "CCC"}}, "panicking")
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.True(t, out[0].OK())
	assert.True(t, out[2].OK())

	require.Error(t, out[1].Err)
	assert.Nil(t, out[1].Assessment)
	assert.Contains(t, out[1].Err.Error(), "panicked")
	assert.Equal(t, domain.KindInternal, domain.KindOf(out[1].Err))
	assert.Contains(t, obs.outcomes, "panicking:"+domain.KindInternal)
}
