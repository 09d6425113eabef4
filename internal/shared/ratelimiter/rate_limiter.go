package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded(ctx context.Context) error
}

// RateLimiter は、一定時間あたりの呼び出し回数を制限します。
type RateLimiter struct {
	limiter *rate.Limiter
	limit   int
}

// NewRateLimiter は interval ごとに最大 limit 回の呼び出しを許可する RateLimiter を生成します。
// limit <= 0 の場合は制限なしになります。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := interval / time.Duration(limit)
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(every), limit),
		limit:   limit,
	}
}

// WaitIfNeeded はレートリミットの上限に達している場合、トークンが補充されるまで待機します。
// コンテキストがキャンセルされた場合はエラーを返します。
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	r := rl.limiter.Reserve()
	if !r.OK() {
		return rl.limiter.Wait(ctx)
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	slog.Debug("rate limit reached, waiting", "limit", rl.limit, "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
