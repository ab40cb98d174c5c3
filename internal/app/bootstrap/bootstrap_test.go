package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/application/commands"
	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	voteerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	voteports "paidvote/contexts/awards-voting/vote-engine/ports"
	"paidvote/internal/platform/config"

	"go.uber.org/goleak"
)

const testSeed = `categories:
  - name: Most Popular
    contestants:
      - name: Ama
      - name: Kofi
  - name: Best Couple
    is_active: false
    contestants:
      - name: Esi and Yaw
`

func testConfig(t *testing.T, driver string, dsn string) config.Config {
	t.Helper()
	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(seedPath, []byte(testSeed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return config.Config{
		ServiceName:        "paidvote-test",
		DatabaseDriver:     driver,
		DatabaseDSN:        dsn,
		SeedFile:           seedPath,
		SeedOnStart:        true,
		VotePriceMinor:     100,
		VoteCurrency:       "GHS",
		PendingVoteTTL:     30 * time.Minute,
		ReconcileMinAge:    2 * time.Minute,
		CountCacheTTL:      time.Second,
		WorkerPollInterval: 10 * time.Millisecond,
		AuditInterval:      time.Millisecond,
		EventBusBuffer:     8,
		PaystackMock:       true,
		EnableReconciler:   true,
		EnableAuditor:      true,
	}
}

// The listing cache janitor has no stop hook and lives for the whole process.
var ignoreListingCacheJanitor = goleak.IgnoreAnyFunction("github.com/hashicorp/golang-lru/v2/expirable.NewLRU[...].func1")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func castVote(t *testing.T, rt *runtime, contestantID string) entities.VoteOutcome {
	t.Helper()
	ctx := context.Background()
	begun, err := rt.votes.Votes.BeginVote(ctx, commands.BeginVoteCommand{
		ContestantID: contestantID,
		VoterEmail:   "fan@example.com",
		AmountMinor:  100,
	})
	if err != nil {
		t.Fatalf("begin vote: %v", err)
	}
	outcome, err := rt.votes.Votes.ConfirmVote(ctx, commands.ConfirmVoteCommand{PaymentReference: begun.Vote.PaymentReference})
	if err != nil {
		t.Fatalf("confirm vote: %v", err)
	}
	return outcome
}

func TestMemoryRuntimeSeedsLedgerProjection(t *testing.T) {
	rt, err := buildRuntime(context.Background(), testConfig(t, config.DriverMemory, ""), discardLogger())
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.close()

	categories, err := rt.catalog.Handler.ListCategoriesHandler(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories.Items) != 1 || categories.Items[0].CategoryID != "most-popular" {
		t.Fatalf("expected only the active category, got %+v", categories.Items)
	}

	outcome := castVote(t, rt, "most-popular--ama")
	if outcome.Kind != entities.OutcomeCommitted || outcome.NewCount != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if _, err := rt.votes.Votes.BeginVote(context.Background(), commands.BeginVoteCommand{
		ContestantID: "best-couple--esi-and-yaw",
		VoterEmail:   "fan@example.com",
		AmountMinor:  100,
	}); err == nil {
		t.Fatal("inactive category must reject votes")
	}

	rt.catalog.Cache.Invalidate("most-popular")
	listing, err := rt.catalog.Handler.ListContestantsHandler(context.Background(), "most-popular")
	if err != nil {
		t.Fatalf("list contestants: %v", err)
	}
	if len(listing.Items) != 2 || listing.Items[0].ContestantID != "most-popular--ama" || listing.Items[0].VoteCount != 1 {
		t.Fatalf("catalog listing does not reflect the ledger: %+v", listing.Items)
	}
}

func TestSQLiteRuntimeSharesContestantTable(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "votes.db")
	rt, err := buildRuntime(context.Background(), testConfig(t, config.DriverSQLite, dsn), discardLogger())
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.close()

	castVote(t, rt, "most-popular--kofi")
	outcome := castVote(t, rt, "most-popular--kofi")
	if outcome.NewCount != 2 {
		t.Fatalf("expected count 2, got %d", outcome.NewCount)
	}

	standings, err := rt.votes.Handler.CategoryStandingsHandler(context.Background(), "most-popular")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(standings.Items) != 2 || standings.Items[0].ContestantID != "most-popular--kofi" || standings.Items[0].VoteCount != 2 {
		t.Fatalf("unexpected standings: %+v", standings.Items)
	}

	// Reseeding must never reset counters.
	if _, err := seedCatalog(context.Background(), rt); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	contestant, err := rt.votes.Handler.ContestantVotesHandler(context.Background(), "most-popular--kofi")
	if err != nil {
		t.Fatalf("contestant votes: %v", err)
	}
	if contestant.VoteCount != 2 {
		t.Fatalf("reseed changed the counter: %d", contestant.VoteCount)
	}
}

func TestWorkerAppDrainsOutboxAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreListingCacheJanitor)

	rt, err := buildRuntime(context.Background(), testConfig(t, config.DriverMemory, ""), discardLogger())
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	castVote(t, rt, "most-popular--ama")

	worker := newWorkerApp(rt, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		pending, err := rt.votes.Store.ListPendingOutbox(context.Background(), 10)
		if err != nil {
			t.Fatalf("outbox: %v", err)
		}
		if len(pending) == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if pending, _ := rt.votes.Store.ListPendingOutbox(context.Background(), 10); len(pending) != 0 {
		t.Fatalf("outbox not drained: %d pending", len(pending))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("worker: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSetCategoryActiveGatesVoting(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			dsn := ""
			if driver == config.DriverSQLite {
				dsn = filepath.Join(t.TempDir(), "votes.db")
			}
			rt, err := buildRuntime(context.Background(), testConfig(t, driver, dsn), discardLogger())
			if err != nil {
				t.Fatalf("build runtime: %v", err)
			}
			defer rt.close()

			if err := setCategoryActive(context.Background(), rt, "best-couple", true); err != nil {
				t.Fatalf("open category: %v", err)
			}
			if outcome := castVote(t, rt, "best-couple--esi-and-yaw"); outcome.NewCount != 1 {
				t.Fatalf("opened category should accept votes: %+v", outcome)
			}

			if err := setCategoryActive(context.Background(), rt, "best-couple", false); err != nil {
				t.Fatalf("close category: %v", err)
			}
			_, err = rt.votes.Votes.BeginVote(context.Background(), commands.BeginVoteCommand{
				ContestantID: "best-couple--esi-and-yaw",
				VoterEmail:   "fan@example.com",
				AmountMinor:  100,
			})
			if !errors.Is(err, voteerrors.ErrCategoryInactive) {
				t.Fatalf("closed category must reject votes, got %v", err)
			}
			contestant, err := rt.votes.Handler.ContestantVotesHandler(context.Background(), "best-couple--esi-and-yaw")
			if err != nil || contestant.VoteCount != 1 {
				t.Fatalf("closing must keep the count: %+v, %v", contestant, err)
			}

			if err := setCategoryActive(context.Background(), rt, "no-such-category", true); err == nil {
				t.Fatal("unknown category must be rejected")
			}
		})
	}
}

type flakyLedger struct {
	voteports.LedgerStore
	calls atomic.Int32
}

func (l *flakyLedger) ListPendingVotes(ctx context.Context, createdBefore time.Time, limit int) ([]entities.Vote, error) {
	if l.calls.Add(1) == 1 {
		return nil, voteerrors.ErrStoreUnavailable
	}
	return l.LedgerStore.ListPendingVotes(ctx, createdBefore, limit)
}

func TestWorkerLoopSurvivesTransientStoreError(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreListingCacheJanitor)

	rt, err := buildRuntime(context.Background(), testConfig(t, config.DriverMemory, ""), discardLogger())
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	ledger := &flakyLedger{LedgerStore: rt.votes.Store}
	rt.votes.Sweeper.Ledger = ledger
	castVote(t, rt, "most-popular--kofi")

	worker := newWorkerApp(rt, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for ledger.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if calls := ledger.calls.Load(); calls < 3 {
		t.Fatalf("sweeper stopped after the store error: %d calls", calls)
	}
	if pending, _ := rt.votes.Store.ListPendingOutbox(context.Background(), 10); len(pending) != 0 {
		t.Fatalf("relay must keep running after a failed sweep: %d pending", len(pending))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("worker: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000", " 8081 ": ":8081"}
	for input, want := range cases {
		if got := normalizeAddr(input); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", input, got, want)
		}
	}
}
