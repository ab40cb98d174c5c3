package postgresadapter

import (
	"strings"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
)

type voteModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	ContestantID     string     `gorm:"column:contestant_id;index"`
	CategoryID       string     `gorm:"column:category_id"`
	PaymentReference string     `gorm:"column:payment_reference;uniqueIndex"`
	AmountMinor      int64      `gorm:"column:amount_minor"`
	Currency         string     `gorm:"column:currency"`
	VoterEmail       string     `gorm:"column:voter_email"`
	State            string     `gorm:"column:state;index"`
	FailureReason    string     `gorm:"column:failure_reason"`
	CountAfterCommit int64      `gorm:"column:count_after_commit"`
	CheckoutURL      string     `gorm:"column:checkout_url"`
	AccessCode       string     `gorm:"column:access_code"`
	CreatedAt        time.Time  `gorm:"column:created_at;index"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
	CommittedAt      *time.Time `gorm:"column:committed_at"`
	FailedAt         *time.Time `gorm:"column:failed_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		ID:               strings.TrimSpace(vote.VoteID),
		ContestantID:     strings.TrimSpace(vote.ContestantID),
		CategoryID:       strings.TrimSpace(vote.CategoryID),
		PaymentReference: strings.TrimSpace(vote.PaymentReference),
		AmountMinor:      vote.AmountMinor,
		Currency:         strings.ToUpper(strings.TrimSpace(vote.Currency)),
		VoterEmail:       strings.TrimSpace(vote.VoterEmail),
		State:            string(vote.State),
		FailureReason:    strings.TrimSpace(vote.FailureReason),
		CountAfterCommit: vote.CountAfterCommit,
		CheckoutURL:      strings.TrimSpace(vote.CheckoutURL),
		AccessCode:       strings.TrimSpace(vote.AccessCode),
		CreatedAt:        vote.CreatedAt.UTC(),
		UpdatedAt:        vote.UpdatedAt.UTC(),
		CommittedAt:      normalizeOptionalTime(vote.CommittedAt),
		FailedAt:         normalizeOptionalTime(vote.FailedAt),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:           m.ID,
		ContestantID:     m.ContestantID,
		CategoryID:       m.CategoryID,
		PaymentReference: m.PaymentReference,
		AmountMinor:      m.AmountMinor,
		Currency:         m.Currency,
		VoterEmail:       m.VoterEmail,
		State:            entities.VoteState(m.State),
		FailureReason:    m.FailureReason,
		CountAfterCommit: m.CountAfterCommit,
		CheckoutURL:      m.CheckoutURL,
		AccessCode:       m.AccessCode,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
		CommittedAt:      normalizeOptionalTime(m.CommittedAt),
		FailedAt:         normalizeOptionalTime(m.FailedAt),
	}
}

// contestantProjectionModel maps the catalog-owned contestants table. The
// ledger writes only vote_count.
type contestantProjectionModel struct {
	ID         string `gorm:"column:id;primaryKey"`
	CategoryID string `gorm:"column:category_id"`
	Name       string `gorm:"column:name"`
	PhotoRef   string `gorm:"column:photo_ref"`
	VoteCount  int64  `gorm:"column:vote_count"`
}

func (contestantProjectionModel) TableName() string {
	return "contestants"
}

type contestantRow struct {
	ContestantID   string `gorm:"column:contestant_id"`
	CategoryID     string `gorm:"column:category_id"`
	CategoryName   string `gorm:"column:category_name"`
	CategoryActive bool   `gorm:"column:category_active"`
	Name           string `gorm:"column:name"`
	PhotoRef       string `gorm:"column:photo_ref"`
	VoteCount      int64  `gorm:"column:vote_count"`
}

type driftRow struct {
	ContestantID   string `gorm:"column:contestant_id"`
	CounterValue   int64  `gorm:"column:counter_value"`
	CommittedVotes int64  `gorm:"column:committed_votes"`
}

type idempotencyModel struct {
	Key         string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	VoteID      string    `gorm:"column:vote_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "vote_engine_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "vote_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "vote_event_dedup"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
