package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "paidvote/contexts/awards-voting/vote-engine/application"
	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	"paidvote/contexts/awards-voting/vote-engine/ports"
)

type VoteExpirer interface {
	ExpireVote(ctx context.Context, vote entities.Vote) (entities.Vote, error)
}

// PendingVoteSweeper fails votes whose payment session window has passed.
// The transition is guarded, so a vote settled concurrently is skipped and a
// callback arriving after the sweep sees an already-failed vote.
type PendingVoteSweeper struct {
	Ledger     ports.LedgerStore
	Expirer    VoteExpirer
	Metrics    ports.Metrics
	Clock      ports.Clock
	SessionTTL time.Duration
	BatchSize  int
	Logger     *slog.Logger
}

func (s PendingVoteSweeper) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(s.Logger)
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	cutoff := resolveNow(s.Clock).Add(-ttl)

	stale, err := s.Ledger.ListPendingVotes(ctx, cutoff, resolveBatch(s.BatchSize, 200))
	if err != nil {
		logger.Error("pending vote sweep list failed",
			"event", "vote_engine_sweep_list_failed",
			"module", "awards-voting/vote-engine",
			"layer", "worker",
			"cutoff", cutoff,
			"error", err.Error(),
		)
		return 0, err
	}

	expired := 0
	for _, vote := range stale {
		if err := ctx.Err(); err != nil {
			break
		}
		_, err := s.Expirer.ExpireVote(ctx, vote)
		if errors.Is(err, domainerrors.ErrVoteNotPending) {
			continue
		}
		if err != nil {
			logger.Error("pending vote expiry failed",
				"event", "vote_engine_sweep_expire_failed",
				"module", "awards-voting/vote-engine",
				"layer", "worker",
				"vote_id", vote.VoteID,
				"payment_reference", vote.PaymentReference,
				"error", err.Error(),
			)
			application.ResolveMetrics(s.Metrics).ObserveExpiredVotes(expired)
			return expired, err
		}
		expired++
	}
	application.ResolveMetrics(s.Metrics).ObserveExpiredVotes(expired)

	if expired > 0 {
		logger.Info("pending vote sweep completed",
			"event", "vote_engine_sweep_completed",
			"module", "awards-voting/vote-engine",
			"layer", "worker",
			"cutoff", cutoff,
			"expired_count", expired,
		)
	}
	return expired, nil
}
