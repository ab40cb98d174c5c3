package queries

import (
	"context"
	"fmt"
	"strings"

	"paidvote/contexts/awards-voting/catalog-service/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/catalog-service/domain/errors"
	"paidvote/contexts/awards-voting/catalog-service/ports"
)

type CatalogQueries struct {
	Repo  ports.CatalogRepository
	Cache ports.ListingCache
}

func (q CatalogQueries) ListActiveCategories(ctx context.Context) ([]entities.Category, error) {
	return q.Repo.ListCategories(ctx, true)
}

// ListContestants returns a category's contestants ordered by vote count,
// highest first. Counts come from the listing cache and may lag the ledger.
func (q CatalogQueries) ListContestants(ctx context.Context, categoryID string) ([]entities.Contestant, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, fmt.Errorf("%w: category id is required", domainerrors.ErrValidation)
	}
	if _, err := q.Repo.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	if q.Cache == nil {
		return q.Repo.ListContestants(ctx, categoryID)
	}
	return q.Cache.GetOrLoad(ctx, categoryID, func(ctx context.Context) ([]entities.Contestant, error) {
		return q.Repo.ListContestants(ctx, categoryID)
	})
}
