// Package redis は株価キャッシュ用のRedisクライアントを生成します。
package redis

import (
	"context"
	"log/slog"
	"time"

	"stock_risk/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// pingTimeout は起動時の疎通確認に使うタイムアウトです。
const pingTimeout = 3 * time.Second

// NewRedisClient は設定からクライアントを生成し、疎通を確認します。
// 接続できない場合はエラーを返すので、呼び出し側はキャッシュなしで動作を続けられます。
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	addr := cfg.Addr()
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
