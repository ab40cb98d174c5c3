package prometheusadapter

import (
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	"paidvote/contexts/awards-voting/vote-engine/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports vote engine activity to Prometheus.
type Metrics struct {
	outcomes           *prometheus.CounterVec
	verifications      *prometheus.HistogramVec
	commitLatency      prometheus.Histogram
	expiredVotes       prometheus.Counter
	counterDrift       *prometheus.GaugeVec
	counterDriftEvents prometheus.Counter
}

// NewMetrics registers the vote engine collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paidvote",
				Subsystem: "vote_engine",
				Name:      "confirm_outcomes_total",
				Help:      "vote confirmation outcomes by kind and trigger source",
			},
			[]string{"outcome", "source"},
		),
		verifications: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "paidvote",
				Subsystem: "vote_engine",
				Name:      "payment_verification_seconds",
				Help:      "payment provider verification latency by reported status",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		commitLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "paidvote",
				Subsystem: "vote_engine",
				Name:      "commit_seconds",
				Help:      "ledger commit-and-increment transaction latency",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		expiredVotes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "paidvote",
				Subsystem: "vote_engine",
				Name:      "expired_pending_votes_total",
				Help:      "pending votes failed by the session sweeper",
			},
		),
		counterDrift: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "paidvote",
				Subsystem: "vote_engine",
				Name:      "counter_drift",
				Help:      "counter value minus committed votes, per contestant with drift",
			},
			[]string{"contestant_id"},
		),
		counterDriftEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "paidvote",
				Subsystem: "vote_engine",
				Name:      "counter_drift_detections_total",
				Help:      "audit findings where a counter disagreed with committed votes",
			},
		),
	}
}

func (m *Metrics) ObserveOutcome(outcome entities.OutcomeKind, source string) {
	m.outcomes.WithLabelValues(string(outcome), source).Inc()
}

func (m *Metrics) ObserveVerification(status entities.PaymentStatus, elapsed time.Duration) {
	m.verifications.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCommitLatency(elapsed time.Duration) {
	m.commitLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveExpiredVotes(count int) {
	if count > 0 {
		m.expiredVotes.Add(float64(count))
	}
}

// ObserveCounterAudit drops series for contestants that are healthy again
// before exporting the current findings.
func (m *Metrics) ObserveCounterAudit(drifts []entities.CounterDrift) {
	m.counterDrift.Reset()
	for _, drift := range drifts {
		delta := drift.CounterValue - drift.CommittedVotes
		if delta == 0 {
			continue
		}
		m.counterDrift.WithLabelValues(drift.ContestantID).Set(float64(delta))
		m.counterDriftEvents.Inc()
	}
}

var _ ports.Metrics = (*Metrics)(nil)
