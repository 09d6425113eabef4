// Package usecase は株価履歴の取得・保存に関するビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"slices"

	"stock_risk/internal/feature/prices/domain"
	"stock_risk/internal/feature/prices/domain/entity"
)

const (
	// DefaultLookback は履歴取得件数が未指定の場合に使用する営業日数です（約1年）。
	DefaultLookback = 252
	// MaxLookback は一度に取得できる最大営業日数です。
	MaxLookback = 5000
	// ChartLookback はフロントエンドの価格推移チャートに返す件数です。
	ChartLookback = 30
)

// PriceRepository は株価データの永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PriceRepository interface {
	// Find は指定銘柄の直近 limit 件を日付の降順で返します。limit <= 0 の場合は全件を返します。
	Find(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error)
	// UpsertBatch は (symbol, date) をキーにデータを挿入または更新します。
	UpsertBatch(ctx context.Context, bars []entity.PriceBar) error
	// DeleteAll はすべての株価データを削除し、削除件数を返します。
	DeleteAll(ctx context.Context) (int64, error)
}

// HistoryUsecase は保存済みの株価履歴を読み出すユースケースです。
type HistoryUsecase struct {
	repo PriceRepository
}

// NewHistoryUsecase は新しい HistoryUsecase を作成します。
func NewHistoryUsecase(repo PriceRepository) *HistoryUsecase {
	return &HistoryUsecase{repo: repo}
}

// GetPriceHistory は指定銘柄の直近 lookback 営業日分の株価を日付の昇順で返します。
// データが1件も存在しない場合は domain.ErrNotFound を返します。
func (u *HistoryUsecase) GetPriceHistory(ctx context.Context, ticker string, lookback int) ([]entity.PriceBar, error) {
	if lookback <= 0 || lookback > MaxLookback {
		lookback = DefaultLookback
	}
	symbol := entity.SanitizeTicker(ticker)

	bars, err := u.repo.Find(ctx, symbol, lookback)
	if err != nil {
		return nil, fmt.Errorf("find price history for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrNotFound)
	}

	// リポジトリは降順で返すため、計算用に昇順へ並べ替える
	slices.SortFunc(bars, func(a, b entity.PriceBar) int {
		return a.Date.Compare(b.Date)
	})
	return bars, nil
}

// RecentCloses はチャート表示用に直近 ChartLookback 件の株価を昇順で返します。
func (u *HistoryUsecase) RecentCloses(ctx context.Context, ticker string) ([]entity.PriceBar, error) {
	return u.GetPriceHistory(ctx, ticker, ChartLookback)
}

// ClearAll は保存済みのすべての株価データを削除します。
func (u *HistoryUsecase) ClearAll(ctx context.Context) (int64, error) {
	return u.repo.DeleteAll(ctx)
}
