package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/olaysco/ecomm-api/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ProductCachePrefix     = "product:v:"
	ProductListCachePrefix = "products:v:"
	GenerationKey          = "products:generation"

	DefaultTTL = 10 * time.Minute
)

// ProductCache caches product details and listing pages in Redis. Keys embed
// a generation counter; bumping it makes every older entry unreachable, and
// the TTL reclaims them.
type ProductCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

type cachedList struct {
	Products []*models.Product `json:"products"`
	Count    int64             `json:"count"`
}

// cachedProduct keeps the fields hidden from API JSON.
type cachedProduct struct {
	*models.Product
	Version int64 `json:"version"`
}

func NewProductCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductCache{redis: client, ttl: ttl, logger: logger}
}

func productKey(generation int64, id string) string {
	return fmt.Sprintf("%s%d:%s", ProductCachePrefix, generation, id)
}

func listKey(generation int64, key string) string {
	return fmt.Sprintf("%s%d:%s", ProductListCachePrefix, generation, key)
}

// Generation returns the current cache generation, creating it on first use.
func (pc *ProductCache) Generation(ctx context.Context) (int64, error) {
	const maxRetries = 3

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		gen, err := pc.redis.Get(ctx, GenerationKey).Int64()
		if err == nil && gen > 0 {
			return gen, nil
		}
		lastErr = err

		if errors.Is(err, redis.Nil) {
			// SetNX so concurrent first readers agree on the starting value.
			if err := pc.redis.SetNX(ctx, GenerationKey, 1, 0).Err(); err != nil {
				lastErr = err
			}
			continue
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(50 * time.Millisecond):
			}
		}
	}
	return 0, fmt.Errorf("failed to get cache generation after %d retries: %w", maxRetries, lastErr)
}

func (pc *ProductCache) GetProduct(ctx context.Context, generation int64, id string) (*models.Product, bool) {
	raw, err := pc.redis.Get(ctx, productKey(generation, id)).Bytes()
	if err != nil {
		return nil, false
	}

	var cp cachedProduct
	if err := json.Unmarshal(raw, &cp); err != nil || cp.Product == nil {
		pc.logger.Warn("Failed to unmarshal cached product", zap.Error(err), zap.String("product_id", id))
		return nil, false
	}
	cp.Product.Version = cp.Version
	return cp.Product, true
}

// SetProductAsync caches a single product in the background.
func (pc *ProductCache) SetProductAsync(generation int64, product *models.Product) {
	payload, err := json.Marshal(cachedProduct{Product: product, Version: product.Version})
	if err != nil {
		pc.logger.Warn("Failed to marshal product for cache", zap.Error(err), zap.String("product_id", product.ID))
		return
	}
	pc.setAsync(productKey(generation, product.ID), payload)
}

func (pc *ProductCache) GetList(ctx context.Context, generation int64, key string) ([]*models.Product, int64, bool) {
	raw, err := pc.redis.Get(ctx, listKey(generation, key)).Bytes()
	if err != nil {
		return nil, 0, false
	}

	var list cachedList
	if err := json.Unmarshal(raw, &list); err != nil {
		pc.logger.Warn("Failed to unmarshal cached product list", zap.Error(err))
		return nil, 0, false
	}
	return list.Products, list.Count, true
}

// SetListAsync caches a listing page in the background.
func (pc *ProductCache) SetListAsync(generation int64, key string, products []*models.Product, count int64) {
	payload, err := json.Marshal(cachedList{Products: products, Count: count})
	if err != nil {
		pc.logger.Warn("Failed to marshal product list for cache", zap.Error(err))
		return
	}
	pc.setAsync(listKey(generation, key), payload)
}

func (pc *ProductCache) setAsync(key string, payload []byte) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := pc.redis.Set(bgCtx, key, payload, pc.ttl).Err(); err != nil {
			pc.logger.Warn("Failed to write product cache", zap.Error(err), zap.String("key", key))
		}
	}()
}

// Invalidate deletes the product's detail entry under the current generation
// and bumps the generation, retiring every cached detail and list. The delete
// still lands when only the bump fails.
func (pc *ProductCache) Invalidate(ctx context.Context, id string) error {
	current, _ := pc.redis.Get(ctx, GenerationKey).Int64()

	var incr *redis.IntCmd
	_, err := pc.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		if id != "" && current > 0 {
			pipe.Del(ctx, productKey(current, id))
		}
		incr = pipe.Incr(ctx, GenerationKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate product cache: %w", err)
	}
	pc.logger.Debug("Product cache invalidated", zap.Int64("generation", incr.Val()), zap.String("product_id", id))
	return nil
}
