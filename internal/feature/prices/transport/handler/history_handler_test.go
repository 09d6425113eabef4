package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stock_risk/internal/feature/prices/domain"
	"stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/prices/transport/handler"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// mockHistoryUsecase はHistoryUsecaseインターフェースのモック実装です。
type mockHistoryUsecase struct {
	RecentClosesFunc func(ctx context.Context, ticker string) ([]entity.PriceBar, error)
	ClearAllFunc     func(ctx context.Context) (int64, error)
}

func (m *mockHistoryUsecase) RecentCloses(ctx context.Context, ticker string) ([]entity.PriceBar, error) {
	return m.RecentClosesFunc(ctx, ticker)
}

func (m *mockHistoryUsecase) ClearAll(ctx context.Context) (int64, error) {
	return m.ClearAllFunc(ctx)
}

// TestHistoryHandler_GetHistory はGetHistoryのHTTPリクエスト/レスポンス処理をテストします。
func TestHistoryHandler_GetHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)

	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		url            string
		mockRecent     func(ctx context.Context, ticker string) ([]entity.PriceBar, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: closes are formatted by date",
			url:  "/api/history/AAPL",
			mockRecent: func(ctx context.Context, ticker string) ([]entity.PriceBar, error) {
				assert.Equal(t, "AAPL", ticker)
				return []entity.PriceBar{
					{Date: d1, Close: 170.5},
					{Date: d1.AddDate(0, 0, 1), Close: 171.25},
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"date":"2024-03-01","close":170.5},{"date":"2024-03-02","close":171.25}]`,
		},
		{
			name: "success: unknown ticker returns empty list",
			url:  "/api/history/NOPE",
			mockRecent: func(ctx context.Context, ticker string) ([]entity.PriceBar, error) {
				return nil, fmt.Errorf("NOPE: %w", domain.ErrNotFound)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name: "error: usecase failure",
			url:  "/api/history/AAPL",
			mockRecent: func(ctx context.Context, ticker string) ([]entity.PriceBar, error) {
				return nil, errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"db down"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHistoryHandler(&mockHistoryUsecase{RecentClosesFunc: tt.mockRecent})

			router := gin.New()
			router.GET("/api/history/:ticker", h.GetHistory)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

// TestHistoryHandler_Clear は全削除エンドポイントの成功と失敗をテストします。
func TestHistoryHandler_Clear(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		mockClear      func(ctx context.Context) (int64, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "success",
			mockClear:      func(ctx context.Context) (int64, error) { return 7, nil },
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"All stock data has been cleared from the database!","deleted":7}`,
		},
		{
			name:           "error: repository failure",
			mockClear:      func(ctx context.Context) (int64, error) { return 0, errors.New("locked") },
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"locked"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHistoryHandler(&mockHistoryUsecase{ClearAllFunc: tt.mockClear})

			router := gin.New()
			router.POST("/api/clear-stocks", h.Clear)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/api/clear-stocks", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
