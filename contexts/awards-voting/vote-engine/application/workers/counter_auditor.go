package workers

import (
	"context"
	"log/slog"

	application "paidvote/contexts/awards-voting/vote-engine/application"
	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	"paidvote/contexts/awards-voting/vote-engine/ports"
)

// CounterAuditor compares every contestant counter with the committed votes
// recorded against it. It reports drift and never repairs it.
type CounterAuditor struct {
	Ledger  ports.LedgerStore
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (a CounterAuditor) RunOnce(ctx context.Context) ([]entities.CounterDrift, error) {
	logger := application.ResolveLogger(a.Logger)
	drifts, err := a.Ledger.AuditCounters(ctx)
	if err != nil {
		logger.Error("vote counter audit failed",
			"event", "vote_engine_counter_audit_failed",
			"module", "awards-voting/vote-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return nil, err
	}
	application.ResolveMetrics(a.Metrics).ObserveCounterAudit(drifts)
	for _, drift := range drifts {
		logger.Error("vote counter drift detected",
			"event", "vote_engine_counter_drift_detected",
			"module", "awards-voting/vote-engine",
			"layer", "worker",
			"contestant_id", drift.ContestantID,
			"counter_value", drift.CounterValue,
			"committed_votes", drift.CommittedVotes,
		)
	}
	return drifts, nil
}
