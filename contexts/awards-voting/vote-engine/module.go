package voteengine

import (
	"log/slog"
	"time"

	httpadapter "paidvote/contexts/awards-voting/vote-engine/adapters/http"
	"paidvote/contexts/awards-voting/vote-engine/adapters/memory"
	"paidvote/contexts/awards-voting/vote-engine/application/commands"
	"paidvote/contexts/awards-voting/vote-engine/application/queries"
	"paidvote/contexts/awards-voting/vote-engine/application/workers"
	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	"paidvote/contexts/awards-voting/vote-engine/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	Votes      commands.VoteUseCase
	Relay      workers.OutboxRelay
	Sweeper    workers.PendingVoteSweeper
	Reconciler workers.PendingVoteReconciler
	Auditor    workers.CounterAuditor
	Consumer   workers.VoteEventConsumer
	Store      *memory.Store
	Gateway    *memory.Gateway
}

type Dependencies struct {
	Ledger          ports.LedgerStore
	Intents         ports.PaymentIntents
	Verifier        ports.PaymentVerifier
	Webhooks        ports.WebhookVerifier
	Idempotency     ports.IdempotencyStore
	Outbox          ports.OutboxRepository
	Dedup           ports.EventDedupStore
	Publisher       ports.EventPublisher
	Subscriber      ports.EventSubscriber
	Receipts        ports.ReceiptSender
	Metrics         ports.Metrics
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	VotePriceMinor  int64
	Currency        string
	PendingVoteTTL  time.Duration
	ReconcileMinAge time.Duration
	VerifyTimeout   time.Duration
	StoreTimeout    time.Duration
	IdempotencyTTL  time.Duration
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	voteUseCase := commands.VoteUseCase{
		Ledger:         deps.Ledger,
		Intents:        deps.Intents,
		Verifier:       deps.Verifier,
		Idempotency:    deps.Idempotency,
		Metrics:        deps.Metrics,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		VotePriceMinor: deps.VotePriceMinor,
		Currency:       deps.Currency,
		VerifyTimeout:  deps.VerifyTimeout,
		StoreTimeout:   deps.StoreTimeout,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Votes:     voteUseCase,
			Standings: queries.StandingsUseCase{Ledger: deps.Ledger, StoreTimeout: deps.StoreTimeout},
			Status:    queries.VoteStatusUseCase{Ledger: deps.Ledger, StoreTimeout: deps.StoreTimeout},
			Webhooks:  deps.Webhooks,
			Logger:    deps.Logger,
		},
		Votes: voteUseCase,
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		Sweeper: workers.PendingVoteSweeper{
			Ledger:     deps.Ledger,
			Expirer:    voteUseCase,
			Metrics:    deps.Metrics,
			Clock:      deps.Clock,
			SessionTTL: deps.PendingVoteTTL,
			Logger:     deps.Logger,
		},
		Reconciler: workers.PendingVoteReconciler{
			Ledger:    deps.Ledger,
			Confirmer: voteUseCase,
			Clock:     deps.Clock,
			MinAge:    deps.ReconcileMinAge,
			Logger:    deps.Logger,
		},
		Auditor: workers.CounterAuditor{
			Ledger:  deps.Ledger,
			Metrics: deps.Metrics,
			Logger:  deps.Logger,
		},
		Consumer: workers.VoteEventConsumer{
			Subscriber: deps.Subscriber,
			Dedup:      deps.Dedup,
			Receipts:   deps.Receipts,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule wires the engine to the in-process ledger and the scripted
// payment gateway. Unknown references verify as pending.
func NewInMemoryModule(
	contestants []entities.ContestantProjection,
	votePriceMinor int64,
	currency string,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(nil)
	for _, contestant := range contestants {
		store.SetContestant(contestant)
	}
	gateway := memory.NewGateway(entities.PaymentStatusPending, currency)
	module := NewModule(Dependencies{
		Ledger:         store,
		Intents:        gateway,
		Verifier:       gateway,
		Idempotency:    store,
		Outbox:         store,
		Dedup:          store,
		Clock:          store,
		IDGen:          store,
		VotePriceMinor: votePriceMinor,
		Currency:       currency,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	module.Gateway = gateway
	return module
}
