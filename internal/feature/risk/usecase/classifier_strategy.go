package usecase

import (
	"fmt"

	priceentity "stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/risk/domain/analytics"
	"stock_risk/internal/feature/risk/domain/entity"
)

// ClassifierStrategy は銘柄ごとにランダムフォレストを学習し、翌日の VaR 超過を予測する評価戦略です。
// モデルは呼び出しごとに学習し直し、銘柄やリクエストをまたいで再利用しません。
type ClassifierStrategy struct {
	cfg        analytics.ClassifierConfig
	confidence float64
}

var _ Strategy = (*ClassifierStrategy)(nil)

// NewClassifierStrategy は新しい ClassifierStrategy を作成します。
func NewClassifierStrategy(cfg analytics.ClassifierConfig, confidence float64) *ClassifierStrategy {
	if cfg.Trees <= 0 {
		cfg.Trees = analytics.DefaultClassifierConfig.Trees
	}
	if cfg.TestRatio <= 0 || cfg.TestRatio >= 1 {
		cfg.TestRatio = analytics.DefaultClassifierConfig.TestRatio
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = analytics.DefaultConfidenceLevel
	}
	return &ClassifierStrategy{cfg: cfg, confidence: confidence}
}

func (s *ClassifierStrategy) Name() string         { return entity.StrategyClassifier }
func (s *ClassifierStrategy) NeedsBenchmark() bool { return false }

// Assess は特徴量行を構築し、時系列順の 70/30 分割で学習・評価したうえで最新行を予測します。
func (s *ClassifierStrategy) Assess(in AssessmentInput) (entity.Assessment, error) {
	rows, err := analytics.BuildFeatureRows(priceentity.Dates(in.Bars), priceentity.Closes(in.Bars), s.confidence)
	if err != nil {
		return entity.Assessment{}, err
	}
	rep, err := analytics.TrainAndPredict(rows, s.cfg)
	if err != nil {
		return entity.Assessment{}, fmt.Errorf("%s: %w", in.Ticker, err)
	}

	level := analytics.InterpretPrediction(rep.PredictedClass, rep.Confidence)
	return entity.Assessment{
		Strategy:    s.Name(),
		Ticker:      in.Ticker,
		RiskLevel:   level,
		LatestClose: rep.Latest.Close,
		Prediction: &entity.PredictionResult{
			Ticker:             in.Ticker,
			ModelAccuracy:      rep.Accuracy,
			PredictedClass:     rep.PredictedClass,
			PredictedRiskLevel: level,
			ConfidenceScore:    rep.Confidence,
			LatestClose:        rep.Latest.Close,
			LatestVaR95:        rep.Latest.VaR95,
			LatestVolatility:   rep.Latest.Volatility5d,
			TrainRows:          rep.TrainRows,
			TestRows:           rep.TestRows,
		},
	}, nil
}
