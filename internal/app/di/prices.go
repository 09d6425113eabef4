package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	priceadapters "stock_risk/internal/feature/prices/adapters"
	priceusecase "stock_risk/internal/feature/prices/usecase"
	"stock_risk/internal/platform/cache"
	"stock_risk/internal/platform/config"
	"stock_risk/internal/shared/ratelimiter"
)

// NewPriceRepository returns the GORM price repository, wrapped in the Redis
// read cache when a client is available.
func NewPriceRepository(db *gorm.DB, rdb *redis.Client) priceusecase.PriceRepository {
	repo := priceadapters.NewPriceRepository(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingPriceRepository(rdb, 0, repo, cache.DefaultNamespace)
}

// NewIngestUsecase wires the market client, price store and request pacing.
func NewIngestUsecase(market priceusecase.MarketRepository, prices priceusecase.PriceRepository, cfg config.MarketConfig, observer priceusecase.IngestObserver) *priceusecase.IngestUsecase {
	rl := ratelimiter.NewRateLimiter(cfg.RequestsPerMinute, time.Minute)
	uc := priceusecase.NewIngestUsecase(market, prices, rl, cfg.IngestDays)
	uc.SetObserver(observer)
	return uc
}
