package commands

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	"paidvote/contexts/awards-voting/vote-engine/ports"
	contractsv1 "paidvote/contracts/gen/events/v1"
)

func newVoteEnvelope(
	eventID string,
	eventType string,
	vote entities.Vote,
	occurredAt time.Time,
	data any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "vote-engine",
		TraceID:          vote.PaymentReference,
		SchemaVersion:    contractsv1.VoteSchemaVersion,
		PartitionKeyPath: "contestant_id",
		PartitionKey:     vote.ContestantID,
		Data:             payload,
	}, nil
}

func hashBeginVoteCommand(contestantID string, email string, amountMinor int64) string {
	sum := sha256.Sum256([]byte(contestantID + "|" + email + "|" + strconv.FormatInt(amountMinor, 10)))
	return hex.EncodeToString(sum[:])
}
