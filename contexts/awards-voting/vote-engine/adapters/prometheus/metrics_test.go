package prometheusadapter

import (
	"testing"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.ObserveOutcome(entities.OutcomeCommitted, "client")
	metrics.ObserveOutcome(entities.OutcomeCommitted, "client")
	metrics.ObserveOutcome(entities.OutcomeAlreadyCommitted, "webhook")
	metrics.ObserveExpiredVotes(3)
	metrics.ObserveExpiredVotes(0)
	metrics.ObserveVerification(entities.PaymentStatusSucceeded, 120*time.Millisecond)
	metrics.ObserveCommitLatency(4 * time.Millisecond)

	if got := testutil.ToFloat64(metrics.outcomes.WithLabelValues("committed", "client")); got != 2 {
		t.Fatalf("expected 2 committed outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.outcomes.WithLabelValues("already_committed", "webhook")); got != 1 {
		t.Fatalf("expected 1 replayed outcome, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.expiredVotes); got != 3 {
		t.Fatalf("expected 3 expired votes, got %v", got)
	}
	if count := testutil.CollectAndCount(reg, "paidvote_vote_engine_payment_verification_seconds"); count != 1 {
		t.Fatalf("expected one verification series, got %d", count)
	}
}

func TestMetricsRecordCounterDrift(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.ObserveCounterAudit([]entities.CounterDrift{
		{ContestantID: "c-ama", CounterValue: 7, CommittedVotes: 5},
		{ContestantID: "c-kofi", CounterValue: 3, CommittedVotes: 4},
	})

	if got := testutil.ToFloat64(metrics.counterDrift.WithLabelValues("c-ama")); got != 2 {
		t.Fatalf("expected drift 2, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.counterDrift.WithLabelValues("c-kofi")); got != -1 {
		t.Fatalf("expected drift -1, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.counterDriftEvents); got != 2 {
		t.Fatalf("expected 2 drift detections, got %v", got)
	}
}

func TestMetricsClearRepairedCounterDrift(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.ObserveCounterAudit([]entities.CounterDrift{
		{ContestantID: "c-ama", CounterValue: 7, CommittedVotes: 5},
	})
	if count := testutil.CollectAndCount(reg, "paidvote_vote_engine_counter_drift"); count != 1 {
		t.Fatalf("expected one drift series, got %d", count)
	}

	metrics.ObserveCounterAudit(nil)
	if count := testutil.CollectAndCount(reg, "paidvote_vote_engine_counter_drift"); count != 0 {
		t.Fatalf("repaired contestant still exported, got %d series", count)
	}
	if got := testutil.ToFloat64(metrics.counterDriftEvents); got != 1 {
		t.Fatalf("detections counter must not reset, got %v", got)
	}
}
