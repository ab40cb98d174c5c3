package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/adapters/memory"
	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
)

func newStandingsStore() *memory.Store {
	store := memory.NewStore(nil)
	counts := map[string]int64{"ama": 7, "kofi": 7, "yaw": 3, "efua": 9}
	for name, count := range counts {
		store.SetContestant(entities.ContestantProjection{
			ContestantID:   "c-" + name,
			CategoryID:     "artiste-of-the-year",
			CategoryActive: true,
			Name:           name,
		})
		store.ForceCounter("c-"+name, count)
	}
	store.SetContestant(entities.ContestantProjection{
		ContestantID: "c-other",
		CategoryID:   "best-collabo",
		Name:         "other",
	})
	return store
}

func TestCategoryStandingsSharesRankOnTies(t *testing.T) {
	uc := StandingsUseCase{Ledger: newStandingsStore()}
	standings, err := uc.CategoryStandings(context.Background(), " artiste-of-the-year ")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	want := []struct {
		id   string
		rank int
	}{
		{"c-efua", 1},
		{"c-ama", 2},
		{"c-kofi", 2},
		{"c-yaw", 4},
	}
	if len(standings) != len(want) {
		t.Fatalf("expected %d standings, got %d", len(want), len(standings))
	}
	for i, expected := range want {
		if standings[i].ContestantID != expected.id || standings[i].Rank != expected.rank {
			t.Fatalf("position %d: expected %s rank %d, got %s rank %d",
				i, expected.id, expected.rank, standings[i].ContestantID, standings[i].Rank)
		}
	}
}

func TestCategoryStandingsRequiresCategory(t *testing.T) {
	uc := StandingsUseCase{Ledger: newStandingsStore()}
	if _, err := uc.CategoryStandings(context.Background(), "  "); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	standings, err := uc.CategoryStandings(context.Background(), "unknown")
	if err != nil || len(standings) != 0 {
		t.Fatalf("unknown category should be empty: %v %v", standings, err)
	}
}

func TestContestantCount(t *testing.T) {
	uc := StandingsUseCase{Ledger: newStandingsStore(), StoreTimeout: time.Second}
	contestant, err := uc.ContestantCount(context.Background(), "c-efua")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if contestant.VoteCount != 9 {
		t.Fatalf("expected 9 votes, got %d", contestant.VoteCount)
	}
	if _, err := uc.ContestantCount(context.Background(), "c-missing"); !errors.Is(err, domainerrors.ErrContestantNotFound) {
		t.Fatalf("expected contestant not found, got %v", err)
	}
}

func TestVoteStatusByPaymentReference(t *testing.T) {
	createdAt := time.Date(2026, 5, 2, 20, 0, 0, 0, time.UTC)
	store := memory.NewStore([]entities.Vote{{
		VoteID:           "v-1",
		ContestantID:     "c-ama",
		CategoryID:       "artiste-of-the-year",
		PaymentReference: "vote-abc",
		AmountMinor:      100,
		Currency:         "GHS",
		State:            entities.VoteStatePending,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}})
	uc := VoteStatusUseCase{Ledger: store}

	vote, err := uc.ByPaymentReference(context.Background(), "vote-abc")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if vote.VoteID != "v-1" || vote.State != entities.VoteStatePending {
		t.Fatalf("unexpected vote: %+v", vote)
	}
	if _, err := uc.ByPaymentReference(context.Background(), "vote-missing"); !errors.Is(err, domainerrors.ErrUnknownPaymentReference) {
		t.Fatalf("expected unknown reference, got %v", err)
	}
	if _, err := uc.ByPaymentReference(context.Background(), ""); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
