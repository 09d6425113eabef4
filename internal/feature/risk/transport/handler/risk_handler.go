// Package handler はriskフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	pricedomain "stock_risk/internal/feature/prices/domain"
	priceentity "stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/risk/domain"
	"stock_risk/internal/feature/risk/domain/entity"
	"stock_risk/internal/feature/risk/transport/http/dto"

	"github.com/gin-gonic/gin"
)

// RiskUsecase はリスク評価のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type RiskUsecase interface {
	Assess(ctx context.Context, ticker, strategy string) (entity.Assessment, error)
	PredictStockRisk(ctx context.Context, ticker string) (*entity.PredictionResult, error)
	AssessBatch(ctx context.Context, items []entity.BatchItem, strategy string) ([]entity.Outcome, error)
}

// Ingestor は外部APIから株価を取得して保存します。
type Ingestor interface {
	Ingest(ctx context.Context, symbol string) (int, error)
}

// RiskHandler はリスク評価のHTTPリクエストを処理します。
type RiskHandler struct {
	uc        RiskUsecase
	ingestor  Ingestor
	benchmark string
}

// NewRiskHandler は新しい RiskHandler を作成します。
func NewRiskHandler(uc RiskUsecase, ingestor Ingestor) *RiskHandler {
	return &RiskHandler{uc: uc, ingestor: ingestor}
}

// WithBenchmark sets the market benchmark that StoreStocks refreshes alongside
// the requested symbols, so the rule strategy can compute beta right after the first store.
func (h *RiskHandler) WithBenchmark(ticker string) *RiskHandler {
	h.benchmark = priceentity.SanitizeTicker(ticker)
	return h
}

// StoreStocks は指定された銘柄の株価を取り込み、続けて分類器による予測を行います。
// 銘柄ごとの失敗はレスポンス内の error として返し、リスト自体が空の場合のみ 400 を返します。
//
// エンドポイント例:
// POST /api/store-stocks  body: ["AAPL", "MSFT"]
func (h *RiskHandler) StoreStocks(c *gin.Context) {
	var symbols []string
	if err := c.ShouldBindJSON(&symbols); err != nil {
		slog.Warn("store-stocks validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "request body must be a JSON array of stock symbols"})
		return
	}
	if len(symbols) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "A list of stock symbols is required!"})
		return
	}

	ctx := c.Request.Context()
	h.refreshBenchmark(ctx, symbols)

	results := make([]dto.StoreResult, 0, len(symbols))
	for _, symbol := range symbols {
		n, err := h.ingestor.Ingest(ctx, symbol)
		if err != nil {
			slog.Warn("failed to store stock data", "symbol", symbol, "error", err)
			msg := err.Error()
			if errors.Is(err, pricedomain.ErrNotFound) {
				msg = fmt.Sprintf("No data found for %s", symbol)
			}
			results = append(results, dto.StoreResult{Symbol: symbol, Error: msg})
			continue
		}
		slog.Info("stock data stored", "symbol", symbol, "bars", n)

		res := dto.StoreResult{
			Symbol:  symbol,
			Message: fmt.Sprintf("Data for %s stored successfully!", symbol),
		}
		p, err := h.uc.PredictStockRisk(ctx, symbol)
		if err != nil {
			res.Analysis = dto.NewTickerError(symbol, err)
		} else {
			res.Analysis = dto.NewPredictionResponse(p)
		}
		results = append(results, res)
	}
	c.JSON(http.StatusOK, dto.StoreResponse{Results: results})
}

// refreshBenchmark はベンチマークがリクエストに含まれていない場合に取り込みます。
// 失敗してもリクエスト全体は止めず、ログにのみ残します。
func (h *RiskHandler) refreshBenchmark(ctx context.Context, symbols []string) {
	if h.benchmark == "" {
		return
	}
	for _, s := range symbols {
		if priceentity.SanitizeTicker(s) == h.benchmark {
			return
		}
	}
	n, err := h.ingestor.Ingest(ctx, h.benchmark)
	if err != nil {
		slog.Warn("failed to refresh benchmark", "benchmark", h.benchmark, "error", err)
		return
	}
	slog.Info("benchmark refreshed", "benchmark", h.benchmark, "bars", n)
}

// Predict は分類器で1銘柄の翌日リスクを予測します。
// 評価に失敗した場合も 200 で {ticker, error, kind} を返します。
//
// エンドポイント例:
// GET /api/predict/:ticker
func (h *RiskHandler) Predict(c *gin.Context) {
	ticker := c.Param("ticker")
	p, err := h.uc.PredictStockRisk(c.Request.Context(), ticker)
	if err != nil {
		slog.Warn("prediction failed", "ticker", ticker, "error", err)
		c.JSON(http.StatusOK, dto.NewTickerError(ticker, err))
		return
	}
	c.JSON(http.StatusOK, dto.NewPredictionResponse(p))
}

// Assess は指定された戦略（既定はルールベース）で1銘柄を評価します。
// 未知の戦略名は 400、銘柄単位の失敗は 200 で {ticker, error, kind} を返します。
//
// エンドポイント例:
// GET /api/risk/:ticker?strategy=rule
func (h *RiskHandler) Assess(c *gin.Context) {
	ticker := c.Param("ticker")
	strategy := c.DefaultQuery("strategy", entity.StrategyRule)

	a, err := h.uc.Assess(c.Request.Context(), ticker, strategy)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownStrategy) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
		slog.Warn("risk assessment failed", "ticker", ticker, "strategy", strategy, "error", err)
		c.JSON(http.StatusOK, dto.NewTickerError(ticker, err))
		return
	}
	c.JSON(http.StatusOK, dto.NewAssessmentResponse(a))
}

// Batch は複数銘柄を評価し、入力順に銘柄ごとの結果を返します。
//
// エンドポイント例:
// POST /api/risk/batch  body: {"tickers": ["AAPL", "MSFT"], "strategy": "rule"}
func (h *RiskHandler) Batch(c *gin.Context) {
	var req dto.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("batch validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if req.Strategy == "" {
		req.Strategy = entity.StrategyRule
	}

	items := make([]entity.BatchItem, len(req.Tickers))
	for i, t := range req.Tickers {
		items[i] = entity.BatchItem{Ticker: t}
	}
	outcomes, err := h.uc.AssessBatch(c.Request.Context(), items, req.Strategy)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownStrategy) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("batch assessment failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.NewBatchResponse(req.Strategy, outcomes))
}
