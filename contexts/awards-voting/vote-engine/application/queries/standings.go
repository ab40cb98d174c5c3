package queries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	"paidvote/contexts/awards-voting/vote-engine/ports"
)

// StandingsUseCase serves authoritative counts straight from the ledger. It
// never reads the catalog listing cache.
type StandingsUseCase struct {
	Ledger       ports.LedgerStore
	StoreTimeout time.Duration
}

func (uc StandingsUseCase) CategoryStandings(ctx context.Context, categoryID string) ([]entities.ContestantStanding, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, fmt.Errorf("%w: category id is required", domainerrors.ErrValidation)
	}
	storeCtx, cancel := uc.withStoreTimeout(ctx)
	defer cancel()
	standings, err := uc.Ledger.ListStandings(storeCtx, categoryID)
	if err != nil {
		return nil, storeError(err)
	}
	rank := 0
	var previous int64 = -1
	for i := range standings {
		if standings[i].VoteCount != previous {
			rank = i + 1
			previous = standings[i].VoteCount
		}
		standings[i].Rank = rank
	}
	return standings, nil
}

func (uc StandingsUseCase) ContestantCount(ctx context.Context, contestantID string) (entities.ContestantProjection, error) {
	contestantID = strings.TrimSpace(contestantID)
	if contestantID == "" {
		return entities.ContestantProjection{}, fmt.Errorf("%w: contestant id is required", domainerrors.ErrValidation)
	}
	storeCtx, cancel := uc.withStoreTimeout(ctx)
	defer cancel()
	contestant, err := uc.Ledger.GetContestant(storeCtx, contestantID)
	if err != nil {
		return entities.ContestantProjection{}, storeError(err)
	}
	return contestant, nil
}

func (uc StandingsUseCase) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, uc.StoreTimeout)
}
