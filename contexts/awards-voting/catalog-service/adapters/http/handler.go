package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"paidvote/contexts/awards-voting/catalog-service/application/commands"
	"paidvote/contexts/awards-voting/catalog-service/application/queries"
	httptransport "paidvote/contexts/awards-voting/catalog-service/transport/http"
)

type Handler struct {
	Catalog  commands.CatalogUseCase
	Queries  queries.CatalogQueries
	CacheTTL time.Duration
	Logger   *slog.Logger
}

func (h Handler) ListCategoriesHandler(ctx context.Context) (httptransport.CategoriesResponse, error) {
	categories, err := h.Queries.ListActiveCategories(ctx)
	if err != nil {
		return httptransport.CategoriesResponse{}, err
	}
	items := make([]httptransport.CategoryItem, 0, len(categories))
	for _, category := range categories {
		items = append(items, httptransport.CategoryItem{
			CategoryID:  category.CategoryID,
			Name:        category.Name,
			Description: category.Description,
			Active:      category.Active,
		})
	}
	return httptransport.CategoriesResponse{Items: items}, nil
}

func (h Handler) ListContestantsHandler(ctx context.Context, categoryID string) (httptransport.ContestantsResponse, error) {
	contestants, err := h.Queries.ListContestants(ctx, categoryID)
	if err != nil {
		return httptransport.ContestantsResponse{}, err
	}
	items := make([]httptransport.ContestantItem, 0, len(contestants))
	for _, contestant := range contestants {
		items = append(items, httptransport.ContestantItem{
			ContestantID: contestant.ContestantID,
			CategoryID:   contestant.CategoryID,
			Name:         contestant.Name,
			PhotoRef:     contestant.PhotoRef,
			VoteCount:    contestant.VoteCount,
		})
	}
	return httptransport.ContestantsResponse{
		CategoryID:      categoryID,
		CacheTTLSeconds: int(h.CacheTTL / time.Second),
		Items:           items,
	}, nil
}
