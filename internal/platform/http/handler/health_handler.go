// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health は /healthz の liveness 応答を返します。プロセスが動いていれば常に成功し、依存先は確認しません（/readyz を参照）。
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Pinger は依存先の疎通確認を行うインターフェースです。
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc は関数を Pinger として扱うためのアダプターです。
type PingFunc func(ctx context.Context) error

// Ping は f(ctx) を呼び出します。
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// readyTimeout は /readyz で依存先を確認する際の上限時間です。
const readyTimeout = 2 * time.Second

// Ready は /readyz エンドポイントのハンドラーを返します。
// 依存先（DB）に到達できない場合は 503 を返します。
func Ready(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
