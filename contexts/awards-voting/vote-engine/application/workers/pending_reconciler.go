package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "paidvote/contexts/awards-voting/vote-engine/application"
	"paidvote/contexts/awards-voting/vote-engine/application/commands"
	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	"paidvote/contexts/awards-voting/vote-engine/ports"
)

type VoteConfirmer interface {
	ConfirmVote(ctx context.Context, cmd commands.ConfirmVoteCommand) (entities.VoteOutcome, error)
}

// PendingVoteReconciler polls the provider for pending votes whose voter
// never returned to confirm. It only triggers ConfirmVote; the engine does the
// verification.
type PendingVoteReconciler struct {
	Ledger    ports.LedgerStore
	Confirmer VoteConfirmer
	Clock     ports.Clock
	MinAge    time.Duration
	BatchSize int
	Logger    *slog.Logger
}

type ReconcileSummary struct {
	Checked   int
	Committed int
	Failed    int
	Pending   int
}

func (r PendingVoteReconciler) RunOnce(ctx context.Context) (ReconcileSummary, error) {
	logger := application.ResolveLogger(r.Logger)
	minAge := r.MinAge
	if minAge <= 0 {
		minAge = 2 * time.Minute
	}
	createdBefore := resolveNow(r.Clock).Add(-minAge)

	pending, err := r.Ledger.ListPendingVotes(ctx, createdBefore, resolveBatch(r.BatchSize, 50))
	if err != nil {
		logger.Error("pending vote reconcile list failed",
			"event", "vote_engine_reconcile_list_failed",
			"module", "awards-voting/vote-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return ReconcileSummary{}, err
	}

	var summary ReconcileSummary
	for _, vote := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Checked++
		outcome, err := r.Confirmer.ConfirmVote(ctx, commands.ConfirmVoteCommand{
			PaymentReference: vote.PaymentReference,
			Source:           commands.SourceReconciler,
		})
		if err != nil {
			// Provider or store trouble on one reference must not starve the rest.
			if errors.Is(err, domainerrors.ErrPaymentProviderUnavailable) || errors.Is(err, domainerrors.ErrStoreUnavailable) {
				logger.Warn("pending vote reconcile deferred",
					"event", "vote_engine_reconcile_deferred",
					"module", "awards-voting/vote-engine",
					"layer", "worker",
					"payment_reference", vote.PaymentReference,
					"error", err.Error(),
				)
				summary.Pending++
				continue
			}
			return summary, err
		}
		switch err := outcome.Err(); {
		case err == nil:
			summary.Committed++
		case errors.Is(err, domainerrors.ErrVerificationFailed):
			summary.Failed++
		default:
			summary.Pending++
		}
	}

	if summary.Checked > 0 {
		logger.Info("pending vote reconcile completed",
			"event", "vote_engine_reconcile_completed",
			"module", "awards-voting/vote-engine",
			"layer", "worker",
			"checked", summary.Checked,
			"committed", summary.Committed,
			"failed", summary.Failed,
			"pending", summary.Pending,
		)
	}
	return summary, nil
}
