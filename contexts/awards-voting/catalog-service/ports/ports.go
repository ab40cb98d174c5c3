package ports

import (
	"context"
	"time"

	"paidvote/contexts/awards-voting/catalog-service/domain/entities"
)

// CatalogRepository stores categories and contestants. Upserts never write
// vote_count.
type CatalogRepository interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]entities.Category, error)
	GetCategory(ctx context.Context, categoryID string) (entities.Category, error)
	ListContestants(ctx context.Context, categoryID string) ([]entities.Contestant, error)
	UpsertCategory(ctx context.Context, category entities.Category) error
	UpsertContestant(ctx context.Context, contestant entities.Contestant) error
	SetCategoryActive(ctx context.Context, categoryID string, active bool, updatedAt time.Time) error
}

// ListingCache holds recent contestant listings per category. Entries may be
// stale by up to the cache TTL.
type ListingCache interface {
	GetOrLoad(
		ctx context.Context,
		categoryID string,
		load func(context.Context) ([]entities.Contestant, error),
	) ([]entities.Contestant, error)
	Invalidate(categoryID string)
}

type Clock interface {
	Now() time.Time
}
