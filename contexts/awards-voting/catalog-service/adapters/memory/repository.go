package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"paidvote/contexts/awards-voting/catalog-service/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/catalog-service/domain/errors"
	"paidvote/contexts/awards-voting/catalog-service/ports"
)

// VoteCountSource reads the live counter for a contestant from the ledger
// sharing this process.
type VoteCountSource func(contestantID string) (int64, bool)

type Repository struct {
	mu          sync.RWMutex
	categories  map[string]entities.Category
	contestants map[string]entities.Contestant
	counts      VoteCountSource
}

func NewRepository(counts VoteCountSource) *Repository {
	return &Repository{
		categories:  make(map[string]entities.Category),
		contestants: make(map[string]entities.Contestant),
		counts:      counts,
	}
}

func (r *Repository) ListCategories(_ context.Context, activeOnly bool) ([]entities.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]entities.Category, 0, len(r.categories))
	for _, category := range r.categories {
		if activeOnly && !category.Active {
			continue
		}
		items = append(items, category)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder == items[j].SortOrder {
			return items[i].Name < items[j].Name
		}
		return items[i].SortOrder < items[j].SortOrder
	})
	return items, nil
}

func (r *Repository) GetCategory(_ context.Context, categoryID string) (entities.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	category, ok := r.categories[strings.TrimSpace(categoryID)]
	if !ok {
		return entities.Category{}, domainerrors.ErrCategoryNotFound
	}
	return category, nil
}

func (r *Repository) ListContestants(_ context.Context, categoryID string) ([]entities.Contestant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]entities.Contestant, 0)
	for _, contestant := range r.contestants {
		if contestant.CategoryID != categoryID {
			continue
		}
		if r.counts != nil {
			if count, ok := r.counts(contestant.ContestantID); ok {
				contestant.VoteCount = count
			}
		}
		items = append(items, contestant)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].VoteCount == items[j].VoteCount {
			return items[i].Name < items[j].Name
		}
		return items[i].VoteCount > items[j].VoteCount
	})
	return items, nil
}

func (r *Repository) UpsertCategory(_ context.Context, category entities.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.categories[category.CategoryID]; ok {
		category.CreatedAt = existing.CreatedAt
	}
	r.categories[category.CategoryID] = category
	return nil
}

func (r *Repository) UpsertContestant(_ context.Context, contestant entities.Contestant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[contestant.CategoryID]; !ok {
		return domainerrors.ErrCategoryNotFound
	}
	if existing, ok := r.contestants[contestant.ContestantID]; ok {
		contestant.CreatedAt = existing.CreatedAt
		contestant.VoteCount = existing.VoteCount
	} else {
		contestant.VoteCount = 0
	}
	r.contestants[contestant.ContestantID] = contestant
	return nil
}

func (r *Repository) SetCategoryActive(_ context.Context, categoryID string, active bool, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[categoryID]
	if !ok {
		return domainerrors.ErrCategoryNotFound
	}
	category.Active = active
	category.UpdatedAt = updatedAt
	r.categories[categoryID] = category
	return nil
}

// Contestants returns every contestant with its category, for wiring the
// ledger projection in single-process deployments.
func (r *Repository) Contestants() []entities.Contestant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]entities.Contestant, 0, len(r.contestants))
	for _, contestant := range r.contestants {
		items = append(items, contestant)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ContestantID < items[j].ContestantID })
	return items
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.CatalogRepository = (*Repository)(nil)
