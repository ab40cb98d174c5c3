package workers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/adapters/memory"
	"paidvote/contexts/awards-voting/vote-engine/adapters/notify"
	"paidvote/contexts/awards-voting/vote-engine/application/commands"
	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	"paidvote/contexts/awards-voting/vote-engine/ports"
	contractsv1 "paidvote/contracts/gen/events/v1"
	"paidvote/internal/platform/messaging"

	"go.uber.org/goleak"
)

const price int64 = 100

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	store   *memory.Store
	gateway *memory.Gateway
	clock   *testClock
	votes   commands.VoteUseCase
	logger  *slog.Logger
}

func newHarness(t *testing.T) harness {
	t.Helper()
	store := memory.NewStore(nil)
	store.SetContestant(entities.ContestantProjection{
		ContestantID:   "c-esi",
		CategoryID:     "best-entertainer",
		CategoryName:   "Best Entertainer",
		CategoryActive: true,
		Name:           "Esi",
	})
	gateway := memory.NewGateway(entities.PaymentStatusPending, "GHS")
	clock := &testClock{now: time.Date(2026, 5, 2, 20, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return harness{
		store:   store,
		gateway: gateway,
		clock:   clock,
		logger:  logger,
		votes: commands.VoteUseCase{
			Ledger:         store,
			Intents:        gateway,
			Verifier:       gateway,
			Idempotency:    store,
			Clock:          clock,
			IDGen:          store,
			VotePriceMinor: price,
			Currency:       "GHS",
			Logger:         logger,
		},
	}
}

func (h harness) begin(t *testing.T) entities.Vote {
	t.Helper()
	result, err := h.votes.BeginVote(context.Background(), commands.BeginVoteCommand{
		ContestantID: "c-esi",
		VoterEmail:   "fan@example.com",
		AmountMinor:  price,
	})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return result.Vote
}

func (h harness) state(t *testing.T, reference string) entities.Vote {
	t.Helper()
	vote, found, err := h.store.FindByPaymentReference(context.Background(), reference)
	if err != nil || !found {
		t.Fatalf("find %s: found=%v err=%v", reference, found, err)
	}
	return vote
}

func TestPendingVoteSweeperExpiresStaleVotes(t *testing.T) {
	h := newHarness(t)
	stale := h.begin(t)
	h.clock.Advance(20 * time.Minute)
	fresh := h.begin(t)
	h.clock.Advance(15 * time.Minute)

	sweeper := PendingVoteSweeper{
		Ledger:     h.store,
		Expirer:    h.votes,
		Clock:      h.clock,
		SessionTTL: 30 * time.Minute,
		Logger:     h.logger,
	}
	expired, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired vote, got %d", expired)
	}
	if got := h.state(t, stale.PaymentReference); got.State != entities.VoteStateFailed || got.FailureReason != entities.FailureReasonSessionExpired {
		t.Fatalf("stale vote not expired: %+v", got)
	}
	if got := h.state(t, fresh.PaymentReference); got.State != entities.VoteStatePending {
		t.Fatalf("fresh vote should stay pending: %+v", got)
	}

	// A payment that lands after the sweep does not revive the vote.
	h.gateway.Settle(stale.PaymentReference, price)
	outcome, err := h.votes.ConfirmVote(context.Background(), commands.ConfirmVoteCommand{
		PaymentReference: stale.PaymentReference,
		Source:           commands.SourceWebhook,
	})
	if err != nil {
		t.Fatalf("late confirm: %v", err)
	}
	if outcome.Kind != entities.OutcomeAlreadyFailed {
		t.Fatalf("expected already failed, got %s", outcome.Kind)
	}
	contestant, _ := h.store.GetContestant(context.Background(), "c-esi")
	if contestant.VoteCount != 0 {
		t.Fatalf("expired vote counted: %d", contestant.VoteCount)
	}
}

type expirerFunc func(ctx context.Context, vote entities.Vote) (entities.Vote, error)

func (f expirerFunc) ExpireVote(ctx context.Context, vote entities.Vote) (entities.Vote, error) {
	return f(ctx, vote)
}

func TestPendingVoteSweeperSkipsVotesSettledConcurrently(t *testing.T) {
	h := newHarness(t)
	vote := h.begin(t)
	h.clock.Advance(time.Hour)

	sweeper := PendingVoteSweeper{
		Ledger: h.store,
		Expirer: expirerFunc(func(ctx context.Context, v entities.Vote) (entities.Vote, error) {
			// The vote commits between listing and expiry.
			h.gateway.Settle(v.PaymentReference, price)
			if _, err := h.votes.ConfirmVote(ctx, commands.ConfirmVoteCommand{PaymentReference: v.PaymentReference}); err != nil {
				return entities.Vote{}, err
			}
			return h.votes.ExpireVote(ctx, v)
		}),
		Clock:      h.clock,
		SessionTTL: 30 * time.Minute,
		Logger:     h.logger,
	}
	expired, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if expired != 0 {
		t.Fatalf("committed vote must not be expired, got %d", expired)
	}
	if got := h.state(t, vote.PaymentReference); got.State != entities.VoteStateCommitted {
		t.Fatalf("expected committed, got %s", got.State)
	}
}

func TestPendingVoteReconcilerSettlesAbandonedCheckouts(t *testing.T) {
	h := newHarness(t)
	paid := h.begin(t)
	declined := h.begin(t)
	waiting := h.begin(t)
	h.clock.Advance(5 * time.Minute)
	recent := h.begin(t)

	h.gateway.Settle(paid.PaymentReference, price)
	h.gateway.Decline(declined.PaymentReference)

	reconciler := PendingVoteReconciler{
		Ledger:    h.store,
		Confirmer: h.votes,
		Clock:     h.clock,
		MinAge:    2 * time.Minute,
		Logger:    h.logger,
	}
	summary, err := reconciler.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if summary.Checked != 3 || summary.Committed != 1 || summary.Failed != 1 || summary.Pending != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if h.state(t, paid.PaymentReference).State != entities.VoteStateCommitted {
		t.Fatal("paid vote not committed")
	}
	if h.state(t, declined.PaymentReference).State != entities.VoteStateFailed {
		t.Fatal("declined vote not failed")
	}
	if h.state(t, waiting.PaymentReference).State != entities.VoteStatePending {
		t.Fatal("unsettled vote should stay pending")
	}
	if h.gateway.VerifyCalls(recent.PaymentReference) != 0 {
		t.Fatal("recent vote should not be polled yet")
	}
}

func TestPendingVoteReconcilerDefersProviderOutage(t *testing.T) {
	h := newHarness(t)
	h.begin(t)
	h.clock.Advance(10 * time.Minute)
	h.gateway.FailVerifyWith(errors.New("timeout"))

	summary, err := PendingVoteReconciler{
		Ledger:    h.store,
		Confirmer: h.votes,
		Clock:     h.clock,
		Logger:    h.logger,
	}.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("provider outage must not abort the cycle: %v", err)
	}
	if summary.Pending != 1 {
		t.Fatalf("expected vote deferred, got %+v", summary)
	}
}

type driftRecorder struct {
	mu     sync.Mutex
	drifts map[string]int64
}

func (r *driftRecorder) ObserveOutcome(entities.OutcomeKind, string) {}
func (r *driftRecorder) ObserveVerification(entities.PaymentStatus, time.Duration) {}
func (r *driftRecorder) ObserveCommitLatency(time.Duration) {}
func (r *driftRecorder) ObserveExpiredVotes(int) {}
func (r *driftRecorder) ObserveCounterAudit(drifts []entities.CounterDrift) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drifts = map[string]int64{}
	for _, drift := range drifts {
		r.drifts[drift.ContestantID] = drift.CounterValue - drift.CommittedVotes
	}
}

func TestCounterAuditorReportsDrift(t *testing.T) {
	h := newHarness(t)
	vote := h.begin(t)
	h.gateway.Settle(vote.PaymentReference, price)
	if _, err := h.votes.ConfirmVote(context.Background(), commands.ConfirmVoteCommand{PaymentReference: vote.PaymentReference}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	recorder := &driftRecorder{drifts: map[string]int64{}}
	auditor := CounterAuditor{Ledger: h.store, Metrics: recorder, Logger: h.logger}
	drifts, err := auditor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(drifts) != 0 {
		t.Fatalf("healthy ledger reported drift: %+v", drifts)
	}

	h.store.ForceCounter("c-esi", 4)
	drifts, err = auditor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(drifts) != 1 || drifts[0].CounterValue != 4 || drifts[0].CommittedVotes != 1 {
		t.Fatalf("unexpected drift: %+v", drifts)
	}
	if recorder.drifts["c-esi"] != 3 {
		t.Fatalf("expected drift metric 3, got %d", recorder.drifts["c-esi"])
	}

	h.store.ForceCounter("c-esi", 1)
	if _, err := auditor.RunOnce(context.Background()); err != nil {
		t.Fatalf("audit after repair: %v", err)
	}
	if _, stale := recorder.drifts["c-esi"]; stale {
		t.Fatalf("repaired counter still reported: %+v", recorder.drifts)
	}
}

func TestOutboxRelayDeliversReceiptsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	bus := messaging.NewBus(16, h.logger)
	receipts := notify.NewLogReceiptSender(h.logger, 16)
	ctx, cancel := context.WithCancel(context.Background())

	consumer := VoteEventConsumer{
		Subscriber: bus,
		Dedup:      h.store,
		Receipts:   receipts,
		Clock:      h.clock,
		Logger:     h.logger,
	}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start consumer: %v", err)
	}

	counted := h.begin(t)
	h.gateway.Settle(counted.PaymentReference, price)
	if _, err := h.votes.ConfirmVote(ctx, commands.ConfirmVoteCommand{PaymentReference: counted.PaymentReference}); err != nil {
		t.Fatalf("confirm counted: %v", err)
	}
	rejected := h.begin(t)
	h.gateway.Decline(rejected.PaymentReference)
	if _, err := h.votes.ConfirmVote(ctx, commands.ConfirmVoteCommand{PaymentReference: rejected.PaymentReference}); err != nil {
		t.Fatalf("confirm rejected: %v", err)
	}

	relay := OutboxRelay{Outbox: h.store, Publisher: bus, Clock: h.clock, Logger: h.logger}
	published, err := relay.RunOnce(ctx)
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if published != 2 {
		t.Fatalf("expected 2 published events, got %d", published)
	}
	again, err := relay.RunOnce(ctx)
	if err != nil || again != 0 {
		t.Fatalf("second relay cycle should be empty: %d, %v", again, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(receipts.Sent()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	sent := receipts.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(sent))
	}
	byReference := map[string]ports.Receipt{}
	for _, receipt := range sent {
		byReference[receipt.PaymentReference] = receipt
	}
	if !byReference[counted.PaymentReference].Counted || byReference[counted.PaymentReference].VoterEmail != "fan@example.com" {
		t.Fatalf("unexpected counted receipt: %+v", byReference[counted.PaymentReference])
	}
	if byReference[rejected.PaymentReference].Counted || byReference[rejected.PaymentReference].Reason != entities.FailureReasonPaymentFailed {
		t.Fatalf("unexpected rejected receipt: %+v", byReference[rejected.PaymentReference])
	}

	cancel()
	bus.Wait()
}

func TestVoteEventConsumerSkipsRedelivery(t *testing.T) {
	h := newHarness(t)
	receipts := notify.NewLogReceiptSender(h.logger, 4)
	consumer := VoteEventConsumer{Dedup: h.store, Receipts: receipts, Clock: h.clock, Logger: h.logger}
	event := ports.EventEnvelope{
		EventID:   "evt-1",
		EventType: contractsv1.EventTypeVoteCommitted,
		Data:      []byte(`{"vote_id":"v1","payment_reference":"vote-1","voter_email":"a@example.com"}`),
	}
	for i := 0; i < 3; i++ {
		if err := consumer.handle(context.Background(), event); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}
	if len(receipts.Sent()) != 1 {
		t.Fatalf("expected a single receipt, got %d", len(receipts.Sent()))
	}
}

type flakyReceipts struct {
	mu       sync.Mutex
	failures int
	sent     []ports.Receipt
}

func (f *flakyReceipts) SendReceipt(_ context.Context, receipt ports.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, receipt)
	return nil
}

func TestVoteEventConsumerRetriesFailedReceipt(t *testing.T) {
	h := newHarness(t)
	receipts := &flakyReceipts{failures: 1}
	consumer := VoteEventConsumer{Dedup: h.store, Receipts: receipts, Clock: h.clock, Logger: h.logger}
	event := ports.EventEnvelope{
		EventID:   "evt-2",
		EventType: contractsv1.EventTypeVoteFailed,
		Data:      []byte(`{"vote_id":"v2","payment_reference":"vote-2","voter_email":"b@example.com","reason":"payment_failed"}`),
	}

	if err := consumer.handle(context.Background(), event); err == nil {
		t.Fatal("expected the failed send to surface")
	}
	if err := consumer.handle(context.Background(), event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if err := consumer.handle(context.Background(), event); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(receipts.sent) != 1 || receipts.sent[0].VoteID != "v2" || receipts.sent[0].Counted {
		t.Fatalf("expected one failed-vote receipt after redelivery, got %+v", receipts.sent)
	}
}
