// Package handler はsymbollistフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"stock_risk/internal/feature/symbollist/domain"
	"stock_risk/internal/feature/symbollist/domain/entity"
	"stock_risk/internal/feature/symbollist/transport/http/dto"

	"github.com/gin-gonic/gin"
)

// SymbolUsecase は銘柄情報に関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type SymbolUsecase interface {
	ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error)
	SyncFromDirectory(ctx context.Context) (int, error)
}

// SymbolHandler は銘柄情報に関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は有効な銘柄の一覧をセクター情報付きで返します。
// Usecaseでエラーが発生した場合は500 Internal Server Errorを返します。
func (h *SymbolHandler) List(c *gin.Context) {
	symbols, err := h.uc.ListActiveSymbols(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, dto.SymbolItem{Code: s.Code, Name: s.Name, Sector: s.Sector, SubIndustry: s.SubIndustry})
	}
	c.JSON(http.StatusOK, out)
}

// Sync は外部ディレクトリ（S&P 500 構成銘柄一覧）から銘柄を再取得して保存します。
// ディレクトリが未設定または空の場合は 503、それ以外の失敗は 502 を返します。
func (h *SymbolHandler) Sync(c *gin.Context) {
	n, err := h.uc.SyncFromDirectory(c.Request.Context())
	if err != nil {
		slog.Error("symbol directory sync failed", "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrDirectoryUnavailable) || errors.Is(err, domain.ErrEmptyDirectory) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.SyncResponse{Synced: n})
}
