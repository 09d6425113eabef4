// Package usecase はリスク評価（ルールベース・学習ベース）のビジネスロジックを実装します。
package usecase

import (
	priceentity "stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/risk/domain/entity"
)

// AssessmentInput は1銘柄の評価に必要な価格系列です。
// Benchmark は NeedsBenchmark が true の戦略にのみ渡されます。
type AssessmentInput struct {
	Ticker    string
	Bars      []priceentity.PriceBar
	Benchmark []priceentity.PriceBar
}

// Strategy はリスク評価戦略のインターフェースです。
// ルールベースと分類器の2つの実装を、特徴量計算に手を入れずに差し替えられます。
type Strategy interface {
	Name() string
	NeedsBenchmark() bool
	// Assess は純粋関数として振る舞い、共有状態を持ちません。
	Assess(in AssessmentInput) (entity.Assessment, error)
}
