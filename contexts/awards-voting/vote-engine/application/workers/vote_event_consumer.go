package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "paidvote/contexts/awards-voting/vote-engine/application"
	"paidvote/contexts/awards-voting/vote-engine/ports"
	contractsv1 "paidvote/contracts/gen/events/v1"
)

const defaultReceiptConsumerGroup = "vote-engine-receipts-cg"

// VoteEventConsumer turns settled-vote events into voter receipts. Delivery
// is at-least-once, so every event passes the dedup gate first.
type VoteEventConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Receipts      ports.ReceiptSender
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

type voteEventPayload struct {
	VoteID           string `json:"vote_id"`
	PaymentReference string `json:"payment_reference"`
	ContestantID     string `json:"contestant_id"`
	CategoryID       string `json:"category_id"`
	VoterEmail       string `json:"voter_email"`
	Reason           string `json:"reason"`
}

func (c VoteEventConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultReceiptConsumerGroup
	}
	for _, topic := range []string{contractsv1.EventTypeVoteCommitted, contractsv1.EventTypeVoteFailed} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handle); err != nil {
			logger.Error("vote event consumer subscribe failed",
				"event", "vote_engine_receipt_consumer_subscribe_failed",
				"module", "awards-voting/vote-engine",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("vote event consumer subscriptions active",
		"event", "vote_engine_receipt_consumer_started",
		"module", "awards-voting/vote-engine",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c VoteEventConsumer) handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := resolveNow(c.Clock)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), now.Add(c.dedupTTL()))
	if err != nil {
		logger.Error("vote event dedupe failed",
			"event", "vote_engine_receipt_dedupe_failed",
			"module", "awards-voting/vote-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("vote event replay skipped",
			"event", "vote_engine_receipt_replayed",
			"module", "awards-voting/vote-engine",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload voteEventPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("vote event payload decode failed",
			"event", "vote_engine_receipt_decode_failed",
			"module", "awards-voting/vote-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	receipt := ports.Receipt{
		VoteID:           payload.VoteID,
		PaymentReference: payload.PaymentReference,
		VoterEmail:       payload.VoterEmail,
		ContestantID:     payload.ContestantID,
		CategoryID:       payload.CategoryID,
		Counted:          event.EventType == contractsv1.EventTypeVoteCommitted,
		Reason:           payload.Reason,
		OccurredAt:       event.OccurredAt,
	}
	if err := c.Receipts.SendReceipt(ctx, receipt); err != nil {
		logger.Error("vote receipt delivery failed",
			"event", "vote_engine_receipt_send_failed",
			"module", "awards-voting/vote-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"vote_id", payload.VoteID,
			"error", err.Error(),
		)
		if releaseErr := c.Dedup.ReleaseEvent(ctx, event.EventID); releaseErr != nil {
			logger.Error("vote event dedupe release failed",
				"event", "vote_engine_receipt_dedupe_release_failed",
				"module", "awards-voting/vote-engine",
				"layer", "worker",
				"event_id", event.EventID,
				"error", releaseErr.Error(),
			)
		}
		return err
	}
	return nil
}

func (c VoteEventConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}
