package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stock_risk/internal/feature/prices/domain"
	"stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/shared/ratelimiter"
)

// DefaultIngestDays は1回の取り込みで遡る暦日数です（約6か月）。
const DefaultIngestDays = 182

// MarketRepository は株価データを取得するリポジトリのインターフェイスです。
// 外部 API の実装を抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	GetTimeSeries(ctx context.Context, symbol string, start, end time.Time) ([]entity.PriceBar, error)
}

// IngestObserver は取り込み結果を計測系へ通知します。
type IngestObserver interface {
	ObserveIngest(symbol string, stored int, err error)
}

type nopIngestObserver struct{}

func (nopIngestObserver) ObserveIngest(string, int, error) {}

// IngestResult は1銘柄分の取り込み結果です。
type IngestResult struct {
	Symbol string
	Stored int
	Err    error
}

// IngestUsecase は外部APIからデータを取得し、データベースに永続化するユースケースを定義します。
type IngestUsecase struct {
	market      MarketRepository
	prices      PriceRepository
	rateLimiter ratelimiter.RateLimiterInterface
	days        int
	now         func() time.Time
	observer    IngestObserver
}

// NewIngestUsecase は新しい IngestUsecase を作成します。days <= 0 の場合は DefaultIngestDays を使用します。
func NewIngestUsecase(market MarketRepository, prices PriceRepository, rateLimiter ratelimiter.RateLimiterInterface, days int) *IngestUsecase {
	if days <= 0 {
		days = DefaultIngestDays
	}
	return &IngestUsecase{
		market:      market,
		prices:      prices,
		rateLimiter: rateLimiter,
		days:        days,
		now:         time.Now,
		observer:    nopIngestObserver{},
	}
}

// SetObserver は取り込み結果の通知先を設定します。nil の場合は通知しません。
func (iu *IngestUsecase) SetObserver(o IngestObserver) {
	if o == nil {
		o = nopIngestObserver{}
	}
	iu.observer = o
}

// Ingest は指定銘柄の直近の日足を外部リポジトリから取得し、データベースに一括で挿入（または更新）します。
// 取得結果が空の場合は domain.ErrNotFound を返します。
func (iu *IngestUsecase) Ingest(ctx context.Context, symbol string) (int, error) {
	symbol = entity.SanitizeTicker(symbol)
	n, err := iu.ingest(ctx, symbol)
	iu.observer.ObserveIngest(symbol, n, err)
	return n, err
}

func (iu *IngestUsecase) ingest(ctx context.Context, symbol string) (int, error) {
	end := iu.now()
	start := end.AddDate(0, 0, -iu.days)

	bars, err := iu.market.GetTimeSeries(ctx, symbol, start, end)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("%s: %w", symbol, domain.ErrNotFound)
	}

	// 取得したデータに銘柄コードを設定し、日付を営業日単位に正規化
	for i := range bars {
		bars[i].Symbol = symbol
		bars[i].Date = entity.TradingDay(bars[i].Date)
	}
	if err := iu.prices.UpsertBatch(ctx, bars); err != nil {
		return 0, fmt.Errorf("store %s: %w", symbol, err)
	}
	return len(bars), nil
}

// IngestAll は指定された全銘柄の日足を取得し、データベースに永続化します。
// APIのレートリミットを考慮して、リクエスト間に適切な待機時間を設けます。
// 1銘柄の失敗では処理を止めず、入力順の結果一覧を返します。コンテキストがキャンセルされた場合のみエラーを返します。
func (iu *IngestUsecase) IngestAll(ctx context.Context, symbols []string) ([]IngestResult, error) {
	results := make([]IngestResult, 0, len(symbols))
	for _, s := range symbols {
		if err := iu.rateLimiter.WaitIfNeeded(ctx); err != nil {
			return results, err
		}
		n, err := iu.Ingest(ctx, s)
		if err != nil {
			// 1つの銘柄でエラーが発生しても処理を止めずにログに出力し、次の銘柄へ
			slog.Error("failed to ingest data", "symbol", s, "error", err)
		}
		results = append(results, IngestResult{Symbol: entity.SanitizeTicker(s), Stored: n, Err: err})
	}
	return results, nil
}
