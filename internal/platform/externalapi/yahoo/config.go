// Package yahoo provides a daily price client backed by Yahoo Finance charts.
package yahoo

import (
	"time"

	"stock_risk/internal/platform/config"
)

// Config holds configuration for the Yahoo Finance client.
type Config struct {
	Timeout            time.Duration // HTTP request timeout
	BreakerMaxFailures uint32        // consecutive failures before the breaker opens
	BreakerOpenTimeout time.Duration // how long the breaker stays open
}

// ConfigFrom maps the market section of the application config.
func ConfigFrom(cfg config.MarketConfig) Config {
	return Config{
		Timeout:            cfg.Timeout,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
	}
}
