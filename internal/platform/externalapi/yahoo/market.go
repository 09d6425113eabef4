package yahoo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/sony/gobreaker"

	"stock_risk/internal/feature/prices/domain"
	"stock_risk/internal/feature/prices/domain/entity"
	pricesusecase "stock_risk/internal/feature/prices/usecase"
	riskusecase "stock_risk/internal/feature/risk/usecase"
	"stock_risk/internal/shared/ratelimiter"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("yahoo finance unavailable")

// BarFetcher retrieves raw chart bars for the given parameters.
type BarFetcher func(p *chart.Params) ([]finance.ChartBar, error)

// Market はYahoo Financeから日足を取得するMarketRepository実装です。
// 呼び出しはサーキットブレーカー経由で行い、連続失敗時は上流への要求を止めます。
type Market struct {
	fetch   BarFetcher
	cb      *gobreaker.CircuitBreaker
	now     func() time.Time
	limiter ratelimiter.RateLimiterInterface
}

var (
	_ pricesusecase.MarketRepository  = (*Market)(nil)
	_ riskusecase.PriceHistoryProvider = (*Market)(nil)
)

// NewMarket creates a Market. A nil fetch uses the live chart API.
func NewMarket(cfg Config, fetch BarFetcher) *Market {
	if fetch == nil {
		fetch = fetchChart
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "yahoo",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &Market{fetch: fetch, cb: cb, now: time.Now}
}

// WithRateLimiter は GetPriceHistory の呼び出しごとに rl で待機させます。
// 取り込み経路は IngestUsecase 側で待機するため、ここで設定するのは直接分析する経路のみです。
func (m *Market) WithRateLimiter(rl ratelimiter.RateLimiterInterface) *Market {
	m.limiter = rl
	return m
}

func fetchChart(p *chart.Params) ([]finance.ChartBar, error) {
	iter := chart.Get(p)
	var bars []finance.ChartBar
	for iter.Next() {
		bars = append(bars, *iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

// GetTimeSeries は [start, end] の日足を日付昇順で返します。終値が0の足は除外します。
func (m *Market) GetTimeSeries(ctx context.Context, symbol string, start, end time.Time) ([]entity.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol = entity.SanitizeTicker(symbol)

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}
	res, err := m.cb.Execute(func() (interface{}, error) {
		return m.fetch(params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w", symbol, ErrUnavailable)
		}
		return nil, fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
	}

	raw, _ := res.([]finance.ChartBar)
	return toDailyBars(symbol, raw), nil
}

// toDailyBars は生の足を日付昇順の日足に変換します。
// 同じ取引日に複数の足がある場合（取引時間中の当日足など）はタイムスタンプが最も新しい足を残します。
func toDailyBars(symbol string, raw []finance.ChartBar) []entity.PriceBar {
	raw = slices.Clone(raw)
	slices.SortStableFunc(raw, func(a, b finance.ChartBar) int { return cmp.Compare(a.Timestamp, b.Timestamp) })

	bars := make([]entity.PriceBar, 0, len(raw))
	for _, b := range raw {
		closePrice := b.Close.InexactFloat64()
		if closePrice == 0 {
			continue
		}
		bar := entity.PriceBar{
			Symbol: symbol,
			Date:   entity.TradingDay(time.Unix(int64(b.Timestamp), 0)),
			Open:   b.Open.InexactFloat64(),
			High:   b.High.InexactFloat64(),
			Low:    b.Low.InexactFloat64(),
			Close:  closePrice,
			Volume: int64(b.Volume),
		}
		if n := len(bars); n > 0 && bars[n-1].Date.Equal(bar.Date) {
			bars[n-1] = bar
			continue
		}
		bars = append(bars, bar)
	}
	return bars
}

// GetPriceHistory は直近 lookback 営業日分の日足を返します。取得結果が空の場合は domain.ErrNotFound を返します。
// 保存済みデータを使わずに分析する場合（エクスポートの --source market）に使用します。
func (m *Market) GetPriceHistory(ctx context.Context, ticker string, lookback int) ([]entity.PriceBar, error) {
	if lookback <= 0 {
		lookback = riskusecase.DefaultLookback
	}
	end := m.now()
	// 週末と祝日を見込んで暦日で多めに遡る
	start := end.AddDate(0, 0, -(lookback*7/5 + 10))

	if m.limiter != nil {
		if err := m.limiter.WaitIfNeeded(ctx); err != nil {
			return nil, err
		}
	}

	bars, err := m.GetTimeSeries(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", entity.SanitizeTicker(ticker), domain.ErrNotFound)
	}
	if len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	return bars, nil
}
