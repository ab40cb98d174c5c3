package ports

import (
	"context"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	contractsv1 "paidvote/contracts/gen/events/v1"
)

// CommitRequest moves one pending vote to committed. Event is appended to the
// outbox inside the same transaction as the counter increment.
type CommitRequest struct {
	VoteID       string
	ContestantID string
	CommittedAt  time.Time
	Event        EventEnvelope
}

// FailRequest moves one pending vote to failed.
type FailRequest struct {
	VoteID   string
	Reason   string
	FailedAt time.Time
	Event    EventEnvelope
}

// LedgerStore is the durable source of truth for votes and per-contestant
// counters. Every state transition is guarded on the pending state and
// returns ErrVoteNotPending when another writer got there first.
type LedgerStore interface {
	CreatePendingVote(ctx context.Context, vote entities.Vote) error
	AttachIntent(ctx context.Context, voteID string, checkoutURL string, accessCode string, updatedAt time.Time) error
	GetVote(ctx context.Context, voteID string) (entities.Vote, error)
	FindByPaymentReference(ctx context.Context, paymentReference string) (entities.Vote, bool, error)
	CommitVoteAndIncrement(ctx context.Context, req CommitRequest) (int64, error)
	MarkVoteFailed(ctx context.Context, req FailRequest) error
	ListPendingVotes(ctx context.Context, createdBefore time.Time, limit int) ([]entities.Vote, error)
	GetContestant(ctx context.Context, contestantID string) (entities.ContestantProjection, error)
	ListStandings(ctx context.Context, categoryID string) ([]entities.ContestantStanding, error)
	AuditCounters(ctx context.Context) ([]entities.CounterDrift, error)
}

type IntentRequest struct {
	Reference      string
	Email          string
	AmountMinor    int64
	Currency       string
	ContestantID   string
	ContestantName string
	CategoryID     string
	CategoryName   string
}

// PaymentIntents opens a checkout session at the provider.
type PaymentIntents interface {
	CreateIntent(ctx context.Context, req IntentRequest) (entities.PaymentIntent, error)
}

// PaymentVerifier asks the provider for the authoritative payment state.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string, expectedAmountMinor int64) (entities.PaymentVerification, error)
}

// WebhookNotification is an authenticated provider callback. It only names
// the reference to verify.
type WebhookNotification struct {
	Event     string
	Reference string
	Status    string
}

type WebhookVerifier interface {
	ParseWebhook(body []byte, signature string) (WebhookNotification, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	VoteID      string
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
	// ReleaseEvent drops a reservation whose side effect did not happen, so
	// the next delivery of the same event is handled again.
	ReleaseEvent(ctx context.Context, eventID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type Receipt struct {
	VoteID           string
	PaymentReference string
	VoterEmail       string
	ContestantID     string
	CategoryID       string
	Counted          bool
	Reason           string
	OccurredAt       time.Time
}

// ReceiptSender delivers the final vote result to the voter.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, receipt Receipt) error
}

// Metrics records engine outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveOutcome(outcome entities.OutcomeKind, source string)
	ObserveVerification(status entities.PaymentStatus, elapsed time.Duration)
	ObserveCommitLatency(elapsed time.Duration)
	ObserveExpiredVotes(count int)
	// ObserveCounterAudit replaces the previous audit result. Contestants
	// missing from drifts are reported as healthy.
	ObserveCounterAudit(drifts []entities.CounterDrift)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
