package cache

import (
	"context"
	"log/slog"
	"time"

	"paidvote/contexts/awards-voting/catalog-service/domain/entities"
	"paidvote/contexts/awards-voting/catalog-service/ports"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// ListingCache keeps contestant listings per category for at most ttl.
// Concurrent misses for one category share a single load. The expirable LRU
// runs a janitor goroutine that cannot be stopped, so a cache lives as long
// as the process.
type ListingCache struct {
	entries *expirable.LRU[string, []entities.Contestant]
	group   singleflight.Group
	logger  *slog.Logger
}

func NewListingCache(size int, ttl time.Duration, logger *slog.Logger) *ListingCache {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingCache{
		entries: expirable.NewLRU[string, []entities.Contestant](size, nil, ttl),
		logger:  logger,
	}
}

func (c *ListingCache) GetOrLoad(
	ctx context.Context,
	categoryID string,
	load func(context.Context) ([]entities.Contestant, error),
) ([]entities.Contestant, error) {
	if cached, ok := c.entries.Get(categoryID); ok {
		return cloneListing(cached), nil
	}
	value, err, shared := c.group.Do(categoryID, func() (any, error) {
		if cached, ok := c.entries.Get(categoryID); ok {
			return cached, nil
		}
		listing, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.entries.Add(categoryID, listing)
		return listing, nil
	})
	if err != nil {
		c.logger.Warn("contestant listing load failed",
			"event", "catalog_listing_cache_load_failed",
			"module", "awards-voting/catalog-service",
			"layer", "adapter",
			"category_id", categoryID,
			"shared", shared,
			"error", err.Error(),
		)
		return nil, err
	}
	return cloneListing(value.([]entities.Contestant)), nil
}

func (c *ListingCache) Invalidate(categoryID string) {
	c.entries.Remove(categoryID)
}

func (c *ListingCache) Len() int {
	return c.entries.Len()
}

func cloneListing(listing []entities.Contestant) []entities.Contestant {
	return append([]entities.Contestant(nil), listing...)
}

var _ ports.ListingCache = (*ListingCache)(nil)
