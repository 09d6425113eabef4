// Package handler はpricesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"stock_risk/internal/feature/prices/domain"
	"stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/prices/transport/http/dto"

	"github.com/gin-gonic/gin"
)

// HistoryUsecase は株価履歴操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type HistoryUsecase interface {
	RecentCloses(ctx context.Context, ticker string) ([]entity.PriceBar, error)
	ClearAll(ctx context.Context) (int64, error)
}

// HistoryHandler は株価履歴のHTTPリクエストを処理します。
type HistoryHandler struct {
	uc HistoryUsecase
}

// NewHistoryHandler は指定されたusecaseでHistoryHandlerの新しいインスタンスを生成します。
func NewHistoryHandler(uc HistoryUsecase) *HistoryHandler {
	return &HistoryHandler{uc: uc}
}

// GetHistory は直近30営業日の終値を日付の昇順で返します。
// データが存在しない銘柄は空配列を返します（チャート側で空表示になる）。
//
// エンドポイント例:
// GET /api/history/:ticker
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	ticker := c.Param("ticker")

	bars, err := h.uc.RecentCloses(c.Request.Context(), ticker)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		slog.Error("failed to load price history", "ticker", ticker, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.ClosePoint, 0, len(bars))
	for _, b := range bars {
		out = append(out, dto.ClosePoint{
			Date:  b.Date.UTC().Format("2006-01-02"),
			Close: b.Close,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Clear は保存済みのすべての株価データを削除します。
//
// エンドポイント例:
// POST /api/clear-stocks
func (h *HistoryHandler) Clear(c *gin.Context) {
	n, err := h.uc.ClearAll(c.Request.Context())
	if err != nil {
		slog.Error("failed to clear stock data", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	slog.Info("stock data cleared", "deleted", n)
	c.JSON(http.StatusOK, dto.ClearResponse{
		Message: "All stock data has been cleared from the database!",
		Deleted: n,
	})
}
