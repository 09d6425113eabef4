package usecase

import (
	"fmt"
	"log/slog"
	"time"

	priceentity "stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/risk/domain"
	"stock_risk/internal/feature/risk/domain/analytics"
	"stock_risk/internal/feature/risk/domain/entity"
)

// RuleStrategy は全期間の指標を閾値投票で集計するルールベースの評価戦略です。
type RuleStrategy struct {
	thresholds      analytics.Thresholds
	confidence      float64
	benchmarkTicker string
}

var _ Strategy = (*RuleStrategy)(nil)

// NewRuleStrategy は新しい RuleStrategy を作成します。
func NewRuleStrategy(thresholds analytics.Thresholds, confidence float64, benchmarkTicker string) *RuleStrategy {
	if confidence <= 0 || confidence >= 1 {
		confidence = analytics.DefaultConfidenceLevel
	}
	return &RuleStrategy{thresholds: thresholds, confidence: confidence, benchmarkTicker: benchmarkTicker}
}

func (s *RuleStrategy) Name() string         { return entity.StrategyRule }
func (s *RuleStrategy) NeedsBenchmark() bool { return true }

// Assess はボラティリティ・VaR・最大ドローダウン・ベータを計算し、リスク階層を判定します。
func (s *RuleStrategy) Assess(in AssessmentInput) (entity.Assessment, error) {
	closes := priceentity.Closes(in.Bars)
	if err := analytics.ValidateCloses(closes); err != nil {
		return entity.Assessment{}, err
	}
	returns := analytics.DailyReturns(closes)
	if len(returns) < 2 {
		return entity.Assessment{}, fmt.Errorf("%s has %d prices: %w", in.Ticker, len(closes), domain.ErrInsufficientHistory)
	}

	vol, err := analytics.AnnualizedVolatility(returns)
	if err != nil {
		return entity.Assessment{}, err
	}
	pointVaR, err := analytics.HistoricalVaR(returns, s.confidence)
	if err != nil {
		return entity.Assessment{}, err
	}
	drawdown, err := analytics.MaxDrawdown(closes)
	if err != nil {
		return entity.Assessment{}, err
	}
	beta, err := s.beta(in.Ticker, in.Bars, returns, in.Benchmark)
	if err != nil {
		return entity.Assessment{}, err
	}

	score := analytics.CompositeScore(analytics.RiskInputs{
		AnnualizedVolatility: vol,
		VaR:                  pointVaR,
		MaxDrawdown:          drawdown,
		Beta:                 beta,
	}, s.thresholds)
	level := analytics.RiskLevelForScore(score)
	latest := closes[len(closes)-1]

	return entity.Assessment{
		Strategy:    s.Name(),
		Ticker:      in.Ticker,
		RiskLevel:   level,
		LatestClose: latest,
		Metrics: &entity.RiskMetricsBundle{
			Ticker:          in.Ticker,
			Volatility:      vol,
			VaR95:           pointVaR,
			MaxDrawdown:     drawdown,
			Beta:            beta,
			RiskLevel:       level,
			Score:           score,
			LatestClose:     latest,
			BenchmarkTicker: s.benchmarkTicker,
		},
	}, nil
}

// beta は銘柄とベンチマークの日次リターンを営業日で内部結合してから計算します。
func (s *RuleStrategy) beta(ticker string, bars []priceentity.PriceBar, returns []float64, benchmark []priceentity.PriceBar) (float64, error) {
	marketCloses := priceentity.Closes(benchmark)
	if err := analytics.ValidateCloses(marketCloses); err != nil {
		return 0, fmt.Errorf("benchmark %s: %w", s.benchmarkTicker, err)
	}
	marketReturns := analytics.DailyReturns(marketCloses)
	stock, market := analytics.AlignReturns(returnDates(bars), returns, returnDates(benchmark), marketReturns)
	beta, degenerate, err := analytics.Beta(stock, market)
	if err != nil {
		return 0, fmt.Errorf("beta of %s vs %s: %w", ticker, s.benchmarkTicker, err)
	}
	if degenerate {
		slog.Warn("benchmark returns have zero variance, beta set to 0",
			"ticker", ticker, "benchmark", s.benchmarkTicker, "aligned", len(market))
	}
	return beta, nil
}

// returnDates は各日次リターンに対応する日付（2本目以降の足の日付）を返します。
func returnDates(bars []priceentity.PriceBar) []time.Time {
	if len(bars) < 2 {
		return nil
	}
	return priceentity.Dates(bars)[1:]
}
