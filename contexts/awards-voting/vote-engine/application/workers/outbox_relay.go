package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "paidvote/contexts/awards-voting/vote-engine/application"
	"paidvote/contexts/awards-voting/vote-engine/ports"
)

// OutboxRelay publishes vote events recorded by ledger transactions.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes one batch in creation order and marks a row published only
// after the bus accepted it. The first failure ends the cycle; unpublished
// rows are picked up again on the next tick.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := resolveBatch(r.BatchSize, 100)

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("vote outbox list failed",
			"event", "vote_engine_outbox_list_failed",
			"module", "awards-voting/vote-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	published := 0
	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("vote outbox decode failed",
				"event", "vote_engine_outbox_decode_failed",
				"module", "awards-voting/vote-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("vote outbox publish failed",
				"event", "vote_engine_outbox_publish_failed",
				"module", "awards-voting/vote-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, resolveNow(r.Clock)); err != nil {
			logger.Error("vote outbox mark published failed",
				"event", "vote_engine_outbox_mark_published_failed",
				"module", "awards-voting/vote-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		published++
	}

	logger.Info("vote outbox relay cycle completed",
		"event", "vote_engine_outbox_relay_completed",
		"module", "awards-voting/vote-engine",
		"layer", "worker",
		"published_count", published,
	)
	return published, nil
}
