// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	finance "github.com/piquette/finance-go"

	"stock_risk/internal/platform/config"
	"stock_risk/internal/platform/externalapi/wikipedia"
	"stock_risk/internal/platform/externalapi/yahoo"
	infrahttp "stock_risk/internal/platform/http"
	"stock_risk/internal/shared/ratelimiter"
)

// NewMarket creates a Yahoo Finance market client sharing a configured HTTP client.
func NewMarket(cfg config.MarketConfig) *yahoo.Market {
	ycfg := yahoo.ConfigFrom(cfg)
	finance.SetHTTPClient(infrahttp.NewHTTPClient(ycfg.Timeout))
	return yahoo.NewMarket(ycfg, nil)
}

// NewPacedMarket creates a market client whose GetPriceHistory calls are paced
// by requests_per_minute. Used where bars are analyzed without going through ingest.
func NewPacedMarket(cfg config.MarketConfig) *yahoo.Market {
	return NewMarket(cfg).WithRateLimiter(ratelimiter.NewRateLimiter(cfg.RequestsPerMinute, time.Minute))
}

// NewDirectorySource creates the S&P 500 constituents scraper.
func NewDirectorySource(cfg config.DirectoryConfig) *wikipedia.ConstituentsSource {
	return wikipedia.NewConstituentsSource(infrahttp.NewHTTPClient(cfg.Timeout), cfg.URL)
}
