package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock_risk/internal/feature/prices/domain"
	"stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/prices/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrDB はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDB = errors.New("database error")

// mockPriceRepository はPriceRepositoryインターフェースのモック実装です。
type mockPriceRepository struct {
	FindFunc        func(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error)
	UpsertBatchFunc func(ctx context.Context, bars []entity.PriceBar) error
	DeleteAllFunc   func(ctx context.Context) (int64, error)
	FindCalls       int
}

func (m *mockPriceRepository) Find(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error) {
	m.FindCalls++
	if m.FindFunc != nil {
		return m.FindFunc(ctx, symbol, limit)
	}
	return nil, errors.New("FindFunc is not implemented")
}

func (m *mockPriceRepository) UpsertBatch(ctx context.Context, bars []entity.PriceBar) error {
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, bars)
	}
	return errors.New("UpsertBatchFunc is not implemented")
}

func (m *mockPriceRepository) DeleteAll(ctx context.Context) (int64, error) {
	if m.DeleteAllFunc != nil {
		return m.DeleteAllFunc(ctx)
	}
	return 0, errors.New("DeleteAllFunc is not implemented")
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// TestHistoryUsecase_GetPriceHistory はGetPriceHistoryの件数補正・並び替え・エラー処理を検証します。
func TestHistoryUsecase_GetPriceHistory(t *testing.T) {
	t.Parallel()

	descBars := []entity.PriceBar{
		{Symbol: "AAPL", Date: day(3), Close: 103},
		{Symbol: "AAPL", Date: day(2), Close: 102},
		{Symbol: "AAPL", Date: day(1), Close: 101},
	}

	tests := []struct {
		name          string
		ticker        string
		lookback      int
		findFunc      func(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error)
		wantSymbol    string
		wantLimit     int
		wantErr       error
		wantAscending []float64
	}{
		{
			name:          "success: results are returned in ascending order",
			ticker:        "AAPL",
			lookback:      3,
			findFunc:      func(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error) { return append([]entity.PriceBar(nil), descBars...), nil },
			wantSymbol:    "AAPL",
			wantLimit:     3,
			wantAscending: []float64{101, 102, 103},
		},
		{
			name:          "success: zero lookback uses default",
			ticker:        "aapl",
			lookback:      0,
			findFunc:      func(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error) { return append([]entity.PriceBar(nil), descBars...), nil },
			wantSymbol:    "AAPL",
			wantLimit:     usecase.DefaultLookback,
			wantAscending: []float64{101, 102, 103},
		},
		{
			name:          "success: ticker is sanitized",
			ticker:        "brk.b",
			lookback:      usecase.MaxLookback + 1,
			findFunc:      func(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error) { return []entity.PriceBar{{Date: day(1), Close: 1}}, nil },
			wantSymbol:    "BRK-B",
			wantLimit:     usecase.DefaultLookback,
			wantAscending: []float64{1},
		},
		{
			name:       "error: no rows returns ErrNotFound",
			ticker:     "NOPE",
			lookback:   10,
			findFunc:   func(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error) { return nil, nil },
			wantSymbol: "NOPE",
			wantLimit:  10,
			wantErr:    domain.ErrNotFound,
		},
		{
			name:       "error: repository error is propagated",
			ticker:     "AAPL",
			lookback:   10,
			findFunc:   func(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error) { return nil, ErrDB },
			wantSymbol: "AAPL",
			wantLimit:  10,
			wantErr:    ErrDB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotSymbol string
			var gotLimit int
			repo := &mockPriceRepository{
				FindFunc: func(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error) {
					gotSymbol, gotLimit = symbol, limit
					return tt.findFunc(ctx, symbol, limit)
				},
			}

			uc := usecase.NewHistoryUsecase(repo)
			bars, err := uc.GetPriceHistory(context.Background(), tt.ticker, tt.lookback)

			assert.Equal(t, tt.wantSymbol, gotSymbol)
			assert.Equal(t, tt.wantLimit, gotLimit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, bars)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAscending, entity.Closes(bars))
		})
	}
}

// TestHistoryUsecase_RecentCloses はチャート用の件数でリポジトリが呼ばれることを検証します。
func TestHistoryUsecase_RecentCloses(t *testing.T) {
	t.Parallel()

	repo := &mockPriceRepository{
		FindFunc: func(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error) {
			assert.Equal(t, usecase.ChartLookback, limit)
			return []entity.PriceBar{{Date: day(1), Close: 10}}, nil
		},
	}

	bars, err := usecase.NewHistoryUsecase(repo).RecentCloses(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.Equal(t, 1, repo.FindCalls)
}

// TestHistoryUsecase_ClearAll は削除件数とエラーがそのまま返されることを検証します。
func TestHistoryUsecase_ClearAll(t *testing.T) {
	t.Parallel()

	repo := &mockPriceRepository{
		DeleteAllFunc: func(ctx context.Context) (int64, error) { return 42, nil },
	}
	n, err := usecase.NewHistoryUsecase(repo).ClearAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	repo.DeleteAllFunc = func(ctx context.Context) (int64, error) { return 0, ErrDB }
	_, err = usecase.NewHistoryUsecase(repo).ClearAll(context.Background())
	assert.ErrorIs(t, err, ErrDB)
}
