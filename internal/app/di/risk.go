package di

import (
	"stock_risk/internal/feature/risk/domain/analytics"
	riskusecase "stock_risk/internal/feature/risk/usecase"
	"stock_risk/internal/platform/config"
)

// NewRiskUsecase registers the rule and classifier strategies over the given price provider.
func NewRiskUsecase(cfg config.RiskConfig, prices riskusecase.PriceHistoryProvider, observer riskusecase.AnalysisObserver) *riskusecase.RiskUsecase {
	rule := riskusecase.NewRuleStrategy(analytics.DefaultThresholds, cfg.ConfidenceLevel, cfg.BenchmarkTicker)
	classifier := riskusecase.NewClassifierStrategy(analytics.ClassifierConfig{
		Trees:     cfg.Trees,
		Seed:      cfg.Seed,
		TestRatio: cfg.TestRatio,
	}, cfg.ConfidenceLevel)

	return riskusecase.NewRiskUsecase(prices, riskusecase.Config{
		BenchmarkTicker: cfg.BenchmarkTicker,
		Lookback:        cfg.LookbackDays,
		Workers:         cfg.BatchWorkers,
	}, observer, rule, classifier)
}
