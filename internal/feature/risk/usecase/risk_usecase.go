package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	priceentity "stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/risk/domain"
	"stock_risk/internal/feature/risk/domain/entity"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBenchmark はベータ計算に使用する市場ベンチマークの銘柄です。
	DefaultBenchmark = "SPY"
	// DefaultLookback はリスク評価に使用する営業日数です（約1年）。
	DefaultLookback = 252
)

// PriceHistoryProvider は日付昇順の株価履歴を提供します。
// 履歴が存在しない場合は prices/domain.ErrNotFound をラップしたエラーを返します。
type PriceHistoryProvider interface {
	GetPriceHistory(ctx context.Context, ticker string, lookback int) ([]priceentity.PriceBar, error)
}

// AnalysisObserver は評価1件ごとの結果と所要時間を受け取ります（メトリクス用）。
type AnalysisObserver interface {
	ObserveAnalysis(strategy, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveAnalysis(string, string, time.Duration) {}

// Config は RiskUsecase の設定です。
type Config struct {
	BenchmarkTicker string
	Lookback        int
	Workers         int // バッチ処理の同時実行数。0 以下の場合は CPU 数
}

// RiskUsecase は価格履歴を取得し、指定された戦略でリスクを評価するユースケースです。
type RiskUsecase struct {
	prices     PriceHistoryProvider
	strategies map[string]Strategy
	cfg        Config
	observer   AnalysisObserver
}

// NewRiskUsecase は新しい RiskUsecase を作成します。observer が nil の場合は何も記録しません。
func NewRiskUsecase(prices PriceHistoryProvider, cfg Config, observer AnalysisObserver, strategies ...Strategy) *RiskUsecase {
	if cfg.BenchmarkTicker == "" {
		cfg.BenchmarkTicker = DefaultBenchmark
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	m := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		m[s.Name()] = s
	}
	return &RiskUsecase{prices: prices, strategies: m, cfg: cfg, observer: observer}
}

// Strategy は登録済みの戦略を名前で返します。
func (u *RiskUsecase) Strategy(name string) (Strategy, error) {
	s, ok := u.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, domain.ErrUnknownStrategy)
	}
	return s, nil
}

// Assess は1銘柄を指定された戦略で評価します。
func (u *RiskUsecase) Assess(ctx context.Context, ticker, strategy string) (entity.Assessment, error) {
	s, err := u.Strategy(strategy)
	if err != nil {
		return entity.Assessment{}, err
	}
	var benchmark []priceentity.PriceBar
	if s.NeedsBenchmark() {
		if benchmark, err = u.benchmark(ctx); err != nil {
			u.observer.ObserveAnalysis(s.Name(), domain.KindOf(err), 0)
			return entity.Assessment{}, err
		}
	}
	return u.assess(ctx, s, ticker, benchmark)
}

// AnalyzeStockRisk はルールベースの指標一式を返します。
func (u *RiskUsecase) AnalyzeStockRisk(ctx context.Context, ticker string) (*entity.RiskMetricsBundle, error) {
	a, err := u.Assess(ctx, ticker, entity.StrategyRule)
	if err != nil {
		return nil, err
	}
	return a.Metrics, nil
}

// PredictStockRisk は分類器による予測結果を返します。
func (u *RiskUsecase) PredictStockRisk(ctx context.Context, ticker string) (*entity.PredictionResult, error) {
	a, err := u.Assess(ctx, ticker, entity.StrategyClassifier)
	if err != nil {
		return nil, err
	}
	return a.Prediction, nil
}

// AssessBatch は複数銘柄を並行して評価し、入力と同じ順序で銘柄ごとの結果を返します。
// 1銘柄の失敗がバッチ全体を中断することはありません。返すエラーは未知の戦略の場合のみです。
func (u *RiskUsecase) AssessBatch(ctx context.Context, items []entity.BatchItem, strategy string) ([]entity.Outcome, error) {
	s, err := u.Strategy(strategy)
	if err != nil {
		return nil, err
	}

	outcomes := make([]entity.Outcome, len(items))
	for i, it := range items {
		outcomes[i].Item = it
	}

	// ベンチマークはバッチ全体で1回だけ取得する
	var benchmark []priceentity.PriceBar
	if s.NeedsBenchmark() {
		benchmark, err = u.benchmark(ctx)
		if err != nil {
			slog.Error("failed to load benchmark for batch", "benchmark", u.cfg.BenchmarkTicker, "error", err)
			for i := range outcomes {
				outcomes[i].Err = err
			}
			return outcomes, nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.Workers)
	for i := range outcomes {
		g.Go(func() error {
			// 1銘柄のpanicでバッチ全体を落とさず、その銘柄の失敗として扱う
			defer func() {
				if r := recover(); r != nil {
					ticker := outcomes[i].Item.Ticker
					slog.Error("risk assessment panicked", "ticker", ticker, "strategy", s.Name(), "panic", r)
					u.observer.ObserveAnalysis(s.Name(), domain.KindInternal, 0)
					outcomes[i].Assessment = nil
					outcomes[i].Err = fmt.Errorf("%s: assessment panicked: %v", ticker, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			a, err := u.assess(gctx, s, outcomes[i].Item.Ticker, benchmark)
			if err != nil {
				slog.Warn("risk assessment failed", "ticker", outcomes[i].Item.Ticker, "strategy", s.Name(), "error", err)
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Assessment = &a
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

func (u *RiskUsecase) assess(ctx context.Context, s Strategy, ticker string, benchmark []priceentity.PriceBar) (entity.Assessment, error) {
	start := time.Now()
	symbol := priceentity.SanitizeTicker(ticker)

	bars, err := u.prices.GetPriceHistory(ctx, symbol, u.cfg.Lookback)
	if err == nil {
		var a entity.Assessment
		a, err = s.Assess(AssessmentInput{Ticker: symbol, Bars: bars, Benchmark: benchmark})
		if err == nil {
			u.observer.ObserveAnalysis(s.Name(), "ok", time.Since(start))
			return a, nil
		}
	}
	u.observer.ObserveAnalysis(s.Name(), domain.KindOf(err), time.Since(start))
	return entity.Assessment{}, err
}

func (u *RiskUsecase) benchmark(ctx context.Context) ([]priceentity.PriceBar, error) {
	bars, err := u.prices.GetPriceHistory(ctx, u.cfg.BenchmarkTicker, u.cfg.Lookback)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", u.cfg.BenchmarkTicker, err)
	}
	return bars, nil
}
