// Package redis 最新定价结果的 Redis 缓存。
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/cache"
)

// ResultCache 按标的缓存最新定价结果，带过期时间的读穿缓存。
type ResultCache struct {
	store  *cache.RedisCache
	prefix string
	ttl    time.Duration
}

// NewResultCache 创建缓存实例。
func NewResultCache(store *cache.RedisCache) *ResultCache {
	return &ResultCache{
		store:  store,
		prefix: "pricing_result:",
		ttl:    15 * time.Minute,
	}
}

func (c *ResultCache) SaveResult(ctx context.Context, result *domain.PricingResult) error {
	if result == nil {
		return nil
	}
	return c.store.SetJSON(ctx, c.key(result.Symbol), result, c.ttl)
}

func (c *ResultCache) GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	if symbol == "" {
		return nil, nil
	}
	val, err := c.store.Get(ctx, c.key(symbol))
	if err != nil {
		return nil, err
	}
	if val == "" {
		return nil, nil
	}
	var result domain.PricingResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *ResultCache) key(symbol string) string {
	return c.prefix + symbol
}
