package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "paidvote/contexts/awards-voting/catalog-service/application"
	"paidvote/contexts/awards-voting/catalog-service/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/catalog-service/domain/errors"
	"paidvote/contexts/awards-voting/catalog-service/ports"
)

type SeedContestant struct {
	ID       string
	Name     string
	PhotoRef string
}

type SeedCategory struct {
	ID          string
	Name        string
	Description string
	Active      bool
	Contestants []SeedContestant
}

type SeedCatalogCommand struct {
	Categories []SeedCategory
}

type SeedResult struct {
	Categories  int
	Contestants int
}

// CatalogUseCase maintains categories and contestants. Vote counts are never
// written from here.
type CatalogUseCase struct {
	Repo   ports.CatalogRepository
	Cache  ports.ListingCache
	Clock  ports.Clock
	Logger *slog.Logger
}

// SeedCatalog upserts every category and contestant in cmd. Ids default to a
// slug of the name, so running the same seed twice is a no-op.
func (uc CatalogUseCase) SeedCatalog(ctx context.Context, cmd SeedCatalogCommand) (SeedResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()

	seen := make(map[string]struct{}, len(cmd.Categories))
	var result SeedResult
	for index, seed := range cmd.Categories {
		name := strings.TrimSpace(seed.Name)
		if name == "" {
			return result, fmt.Errorf("%w: category %d has no name", domainerrors.ErrValidation, index)
		}
		categoryID := strings.TrimSpace(seed.ID)
		if categoryID == "" {
			categoryID = entities.Slug(name)
		}
		if _, dup := seen[categoryID]; dup {
			return result, fmt.Errorf("%w: duplicate category id %q", domainerrors.ErrValidation, categoryID)
		}
		seen[categoryID] = struct{}{}

		if err := uc.Repo.UpsertCategory(ctx, entities.Category{
			CategoryID:  categoryID,
			Name:        name,
			Description: strings.TrimSpace(seed.Description),
			Active:      seed.Active,
			SortOrder:   index,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			logger.Error("catalog seed category upsert failed",
				"event", "catalog_seed_category_failed",
				"module", "awards-voting/catalog-service",
				"layer", "application",
				"category_id", categoryID,
				"error", err.Error(),
			)
			return result, err
		}
		result.Categories++

		for _, contestant := range seed.Contestants {
			contestantName := strings.TrimSpace(contestant.Name)
			if contestantName == "" {
				return result, fmt.Errorf("%w: contestant without name in %q", domainerrors.ErrValidation, categoryID)
			}
			contestantID := strings.TrimSpace(contestant.ID)
			if contestantID == "" {
				contestantID = categoryID + "--" + entities.Slug(contestantName)
			}
			if err := uc.Repo.UpsertContestant(ctx, entities.Contestant{
				ContestantID: contestantID,
				CategoryID:   categoryID,
				Name:         contestantName,
				PhotoRef:     strings.TrimSpace(contestant.PhotoRef),
				CreatedAt:    now,
				UpdatedAt:    now,
			}); err != nil {
				logger.Error("catalog seed contestant upsert failed",
					"event", "catalog_seed_contestant_failed",
					"module", "awards-voting/catalog-service",
					"layer", "application",
					"category_id", categoryID,
					"contestant_id", contestantID,
					"error", err.Error(),
				)
				return result, err
			}
			result.Contestants++
		}
		uc.invalidate(categoryID)
	}

	logger.Info("catalog seed completed",
		"event", "catalog_seed_completed",
		"module", "awards-voting/catalog-service",
		"layer", "application",
		"categories", result.Categories,
		"contestants", result.Contestants,
	)
	return result, nil
}

// SetCategoryActive opens or closes a category for voting.
func (uc CatalogUseCase) SetCategoryActive(ctx context.Context, categoryID string, active bool) error {
	logger := application.ResolveLogger(uc.Logger)
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return fmt.Errorf("%w: category id is required", domainerrors.ErrValidation)
	}
	if err := uc.Repo.SetCategoryActive(ctx, categoryID, active, uc.now()); err != nil {
		return err
	}
	uc.invalidate(categoryID)
	logger.Info("catalog category activity changed",
		"event", "catalog_category_activity_changed",
		"module", "awards-voting/catalog-service",
		"layer", "application",
		"category_id", categoryID,
		"active", active,
	)
	return nil
}

func (uc CatalogUseCase) invalidate(categoryID string) {
	if uc.Cache != nil {
		uc.Cache.Invalidate(categoryID)
	}
}

func (uc CatalogUseCase) now() time.Time {
	return application.Now(uc.Clock)
}
