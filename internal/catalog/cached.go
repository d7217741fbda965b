package catalog

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"edugrant-workers/internal/common/database"
	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/common/metrics"
	"edugrant-workers/internal/models"
)

const CacheKey = "catalog:offers"

// CachedSource keeps the catalog in Redis. Cache errors degrade to a direct fetch.
type CachedSource struct {
	next   Source
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(next Source, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{next: next, redis: rdb, ttl: ttl, logger: log}
}

func (c *CachedSource) FetchCatalog(ctx context.Context) ([]models.Offer, error) {
	var cached []models.Offer
	found, err := database.GetJSON(ctx, c.redis, CacheKey, &cached)
	if err != nil {
		c.logger.Warn("catalog cache read failed", map[string]interface{}{"error": err.Error()})
	}
	if found && len(cached) > 0 {
		metrics.CatalogCacheHits.Inc()
		return cached, nil
	}

	offers, err := c.next.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	// Never cache an empty catalog: the next request should retry the store.
	if len(offers) > 0 {
		if err := database.SetJSON(ctx, c.redis, CacheKey, offers, c.ttl); err != nil {
			c.logger.Warn("catalog cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return offers, nil
}
