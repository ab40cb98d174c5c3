package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	"paidvote/contexts/awards-voting/vote-engine/ports"
)

// VoteStatusUseCase lets a voter poll the state of a payment reference.
type VoteStatusUseCase struct {
	Ledger       ports.LedgerStore
	StoreTimeout time.Duration
}

func (uc VoteStatusUseCase) ByPaymentReference(ctx context.Context, paymentReference string) (entities.Vote, error) {
	reference := strings.TrimSpace(paymentReference)
	if reference == "" {
		return entities.Vote{}, fmt.Errorf("%w: payment reference is required", domainerrors.ErrValidation)
	}
	storeCtx, cancel := withTimeout(ctx, uc.StoreTimeout)
	defer cancel()
	vote, found, err := uc.Ledger.FindByPaymentReference(storeCtx, reference)
	if err != nil {
		return entities.Vote{}, storeError(err)
	}
	if !found {
		return entities.Vote{}, domainerrors.ErrUnknownPaymentReference
	}
	return vote, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func storeError(err error) error {
	if errors.Is(err, domainerrors.ErrContestantNotFound) ||
		errors.Is(err, domainerrors.ErrVoteNotFound) ||
		errors.Is(err, domainerrors.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domainerrors.ErrStoreUnavailable, err)
}
