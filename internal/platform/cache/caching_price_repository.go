// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/prices/usecase"
)

// DefaultNamespace is the key prefix used when none is given.
const DefaultNamespace = "prices"

// CachingPriceRepository decorates a PriceRepository with Redis caching.
// Reads are cached per (symbol, limit); writes invalidate every entry of the
// affected symbols and DeleteAll drops the whole namespace.
type CachingPriceRepository struct {
	inner     usecase.PriceRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	now       func() time.Time
}

var _ usecase.PriceRepository = (*CachingPriceRepository)(nil)

// NewCachingPriceRepository decorates a PriceRepository with Redis caching.
// A nil client turns the decorator into a passthrough. If ttl is 0 each entry
// lives until the next US market close. If namespace is empty, it uses "prices".
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PriceRepository, namespace string) *CachingPriceRepository {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingPriceRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		now:       time.Now,
	}
}

// Find retrieves bars, checking cache first then falling back to the database.
func (c *CachingPriceRepository) Find(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, symbol, limit)
	}

	key := c.cacheKey(symbol, limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.PriceBar
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// 壊れたエントリは削除してDBから読み直す
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.Find(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	// 空の結果はキャッシュしない（直後の取り込みで埋まるため）
	if len(out) == 0 {
		return out, nil
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.expiry()).Err(); err != nil {
			slog.Warn("price cache write failed", "key", key, "error", err)
		}
	}
	return out, nil
}

// UpsertBatch stores bars and invalidates the cache entries of every affected symbol.
func (c *CachingPriceRepository) UpsertBatch(ctx context.Context, bars []entity.PriceBar) error {
	if err := c.inner.UpsertBatch(ctx, bars); err != nil {
		return err
	}
	if c.rdb == nil || len(bars) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	for _, b := range bars {
		prefix := c.cacheKeyPrefix(b.Symbol)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		if err := c.deleteByPattern(ctx, prefix+"*"); err != nil {
			slog.Warn("price cache invalidation failed", "symbol", b.Symbol, "error", err)
		}
	}
	return nil
}

// DeleteAll removes every stored bar and clears the namespace.
func (c *CachingPriceRepository) DeleteAll(ctx context.Context) (int64, error) {
	n, err := c.inner.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	if c.rdb != nil {
		if err := c.deleteByPattern(ctx, c.namespace+":*"); err != nil {
			slog.Warn("price cache flush failed", "namespace", c.namespace, "error", err)
		}
	}
	return n, nil
}

func (c *CachingPriceRepository) expiry() time.Duration {
	if c.ttl > 0 {
		return c.ttl
	}
	return TimeUntilNextClose(c.now())
}

func (c *CachingPriceRepository) cacheKey(symbol string, limit int) string {
	return fmt.Sprintf("%s%d", c.cacheKeyPrefix(symbol), limit)
}

func (c *CachingPriceRepository) cacheKeyPrefix(symbol string) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(symbol))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingPriceRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
