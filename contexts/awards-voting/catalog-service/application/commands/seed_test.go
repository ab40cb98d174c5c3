package commands

import (
	"context"
	"errors"
	"testing"

	"paidvote/contexts/awards-voting/catalog-service/adapters/memory"
	domainerrors "paidvote/contexts/awards-voting/catalog-service/domain/errors"
)

func TestSeedCatalogIsRepeatable(t *testing.T) {
	repo := memory.NewRepository(nil)
	uc := CatalogUseCase{Repo: repo}
	cmd := SeedCatalogCommand{Categories: []SeedCategory{
		{
			Name:   "Most Popular",
			Active: true,
			Contestants: []SeedContestant{
				{Name: "Kofi Boateng"},
				{ID: "c-esi", Name: "Esi Owusu"},
			},
		},
		{Name: "Best Couple", Active: false},
	}}

	for run := 0; run < 2; run++ {
		result, err := uc.SeedCatalog(context.Background(), cmd)
		if err != nil {
			t.Fatalf("seed run %d: %v", run, err)
		}
		if result.Categories != 2 || result.Contestants != 2 {
			t.Fatalf("unexpected seed result: %+v", result)
		}
	}

	active, err := repo.ListCategories(context.Background(), true)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(active) != 1 || active[0].CategoryID != "most-popular" {
		t.Fatalf("unexpected active categories: %+v", active)
	}
	contestants := repo.Contestants()
	if len(contestants) != 2 {
		t.Fatalf("expected 2 contestants after reseed, got %d", len(contestants))
	}
	ids := map[string]bool{}
	for _, contestant := range contestants {
		ids[contestant.ContestantID] = true
	}
	if !ids["c-esi"] || !ids["most-popular--kofi-boateng"] {
		t.Fatalf("unexpected contestant ids: %v", ids)
	}
}

func TestSeedCatalogRejectsDuplicateCategory(t *testing.T) {
	uc := CatalogUseCase{Repo: memory.NewRepository(nil)}
	_, err := uc.SeedCatalog(context.Background(), SeedCatalogCommand{Categories: []SeedCategory{
		{Name: "Most Friendly"},
		{Name: "most friendly"},
	}})
	if !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetCategoryActive(t *testing.T) {
	repo := memory.NewRepository(nil)
	uc := CatalogUseCase{Repo: repo}
	if _, err := uc.SeedCatalog(context.Background(), SeedCatalogCommand{Categories: []SeedCategory{{Name: "Most Intelligent", Active: true}}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := uc.SetCategoryActive(context.Background(), "most-intelligent", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	category, err := repo.GetCategory(context.Background(), "most-intelligent")
	if err != nil {
		t.Fatalf("get category: %v", err)
	}
	if category.Active {
		t.Fatal("category still active")
	}
	if err := uc.SetCategoryActive(context.Background(), "missing", true); !errors.Is(err, domainerrors.ErrCategoryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
