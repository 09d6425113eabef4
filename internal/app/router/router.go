// Package router はHTTPルーティングを定義します。
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	pricehandler "stock_risk/internal/feature/prices/transport/handler"
	riskhandler "stock_risk/internal/feature/risk/transport/handler"
	symbollisthandler "stock_risk/internal/feature/symbollist/transport/handler"
	"stock_risk/internal/platform/http/handler"
	"stock_risk/internal/platform/http/middleware"
	"stock_risk/internal/platform/metrics"
)

// Handlers はルーターに登録するハンドラー一式です。
type Handlers struct {
	History *pricehandler.HistoryHandler
	Risk    *riskhandler.RiskHandler
	Symbol  *symbollisthandler.SymbolHandler
	Ready   handler.Pinger
}

// NewRouter はミドルウェアとルートを設定した gin.Engine を返します。
func NewRouter(h Handlers, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), metrics.Middleware())

	// フロントエンドからのアクセスを許可
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(h.Ready))
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		// 株価の取り込みと履歴
		api.POST("/store-stocks", h.Risk.StoreStocks)
		api.POST("/clear-stocks", h.History.Clear)
		api.GET("/history/:ticker", h.History.GetHistory)

		// リスク評価
		api.GET("/predict/:ticker", h.Risk.Predict)
		api.GET("/risk/:ticker", h.Risk.Assess)
		api.POST("/risk/batch", h.Risk.Batch)

		// 銘柄マスタ
		api.GET("/symbols", h.Symbol.List)
		api.POST("/symbols/sync", h.Symbol.Sync)
	}

	return r
}
