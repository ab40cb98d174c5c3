package application

import (
	"log/slog"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	"paidvote/contexts/awards-voting/vote-engine/ports"
)

// ResolveLogger falls back to slog.Default so use cases can run without
// wiring.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// ResolveMetrics returns a no-op recorder when none is configured.
func ResolveMetrics(metrics ports.Metrics) ports.Metrics {
	if metrics == nil {
		return noopMetrics{}
	}
	return metrics
}

type noopMetrics struct{}

func (noopMetrics) ObserveOutcome(entities.OutcomeKind, string) {}
func (noopMetrics) ObserveVerification(entities.PaymentStatus, time.Duration) {}
func (noopMetrics) ObserveCommitLatency(time.Duration) {}
func (noopMetrics) ObserveExpiredVotes(int) {}
func (noopMetrics) ObserveCounterAudit([]entities.CounterDrift) {}
