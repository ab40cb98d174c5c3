package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	"paidvote/contexts/awards-voting/vote-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates the ledger-owned tables. Catalog tables are migrated by
// the catalog service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&voteModel{}, &idempotencyModel{}, &outboxModel{}, &eventDedupModel{})
}

func (r *Repository) CreatePendingVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	row.State = string(entities.VoteStatePending)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicatePaymentReference
		}
		return r.logError("vote_engine_repo_create_pending_failed", err,
			"vote_id", row.ID,
			"payment_reference", row.PaymentReference,
		)
	}
	return nil
}

func (r *Repository) AttachIntent(
	ctx context.Context,
	voteID string,
	checkoutURL string,
	accessCode string,
	updatedAt time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("id = ?", strings.TrimSpace(voteID)).
		Updates(map[string]any{
			"checkout_url": strings.TrimSpace(checkoutURL),
			"access_code":  strings.TrimSpace(accessCode),
			"updated_at":   updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("vote_engine_repo_attach_intent_failed", result.Error, "vote_id", strings.TrimSpace(voteID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoteNotFound
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(voteID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrVoteNotFound
		}
		return entities.Vote{}, r.logError("vote_engine_repo_get_vote_failed", err, "vote_id", strings.TrimSpace(voteID))
	}
	return row.toEntity(), nil
}

func (r *Repository) FindByPaymentReference(ctx context.Context, paymentReference string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("payment_reference = ?", strings.TrimSpace(paymentReference)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("vote_engine_repo_find_by_reference_failed", err,
			"payment_reference", strings.TrimSpace(paymentReference),
		)
	}
	return row.toEntity(), true, nil
}

// CommitVoteAndIncrement performs the pending->committed transition, the
// counter increment, the count snapshot and the outbox append in a single
// transaction. The guarded UPDATE lets exactly one caller win per vote.
func (r *Repository) CommitVoteAndIncrement(ctx context.Context, req ports.CommitRequest) (int64, error) {
	voteID := strings.TrimSpace(req.VoteID)
	contestantID := strings.TrimSpace(req.ContestantID)
	committedAt := req.CommittedAt.UTC()

	var newCount int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&voteModel{}).
			Where("id = ?", voteID).
			Where("state = ?", string(entities.VoteStatePending)).
			Updates(map[string]any{
				"state":        string(entities.VoteStateCommitted),
				"committed_at": committedAt,
				"updated_at":   committedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrVoteNotPending
		}

		result = tx.Model(&contestantProjectionModel{}).
			Where("id = ?", contestantID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrContestantNotFound
		}

		var counter contestantProjectionModel
		if err := tx.Select("id", "vote_count").
			Where("id = ?", contestantID).
			Take(&counter).Error; err != nil {
			return err
		}
		newCount = counter.VoteCount

		if err := tx.Model(&voteModel{}).
			Where("id = ?", voteID).
			UpdateColumn("count_after_commit", newCount).Error; err != nil {
			return err
		}
		return appendOutbox(tx, req.Event)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrVoteNotPending) ||
			errors.Is(err, domainerrors.ErrContestantNotFound) ||
			errors.Is(err, domainerrors.ErrConflict) {
			return 0, err
		}
		return 0, r.logError("vote_engine_repo_commit_failed", err,
			"vote_id", voteID,
			"contestant_id", contestantID,
		)
	}
	return newCount, nil
}

func (r *Repository) MarkVoteFailed(ctx context.Context, req ports.FailRequest) error {
	voteID := strings.TrimSpace(req.VoteID)
	failedAt := req.FailedAt.UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&voteModel{}).
			Where("id = ?", voteID).
			Where("state = ?", string(entities.VoteStatePending)).
			Updates(map[string]any{
				"state":          string(entities.VoteStateFailed),
				"failure_reason": strings.TrimSpace(req.Reason),
				"failed_at":      failedAt,
				"updated_at":     failedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrVoteNotPending
		}
		return appendOutbox(tx, req.Event)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrVoteNotPending) || errors.Is(err, domainerrors.ErrConflict) {
			return err
		}
		return r.logError("vote_engine_repo_mark_failed_failed", err,
			"vote_id", voteID,
			"reason", strings.TrimSpace(req.Reason),
		)
	}
	return nil
}

func (r *Repository) ListPendingVotes(ctx context.Context, createdBefore time.Time, limit int) ([]entities.Vote, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("state = ?", string(entities.VoteStatePending)).
		Where("created_at < ?", createdBefore.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("vote_engine_repo_list_pending_failed", err, "limit", limit)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetContestant(ctx context.Context, contestantID string) (entities.ContestantProjection, error) {
	var row contestantRow
	err := r.db.WithContext(ctx).
		Table("contestants AS c").
		Select("c.id AS contestant_id, c.category_id, cat.name AS category_name, cat.is_active AS category_active, c.name, c.photo_ref, c.vote_count").
		Joins("JOIN categories AS cat ON cat.id = c.category_id").
		Where("c.id = ?", strings.TrimSpace(contestantID)).
		Take(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ContestantProjection{}, domainerrors.ErrContestantNotFound
		}
		return entities.ContestantProjection{}, r.logError("vote_engine_repo_get_contestant_failed", err,
			"contestant_id", strings.TrimSpace(contestantID),
		)
	}
	return entities.ContestantProjection{
		ContestantID:   row.ContestantID,
		CategoryID:     row.CategoryID,
		CategoryName:   row.CategoryName,
		CategoryActive: row.CategoryActive,
		Name:           row.Name,
		PhotoRef:       row.PhotoRef,
		VoteCount:      row.VoteCount,
	}, nil
}

func (r *Repository) ListStandings(ctx context.Context, categoryID string) ([]entities.ContestantStanding, error) {
	var rows []contestantProjectionModel
	if err := r.db.WithContext(ctx).
		Where("category_id = ?", strings.TrimSpace(categoryID)).
		Order("vote_count DESC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("vote_engine_repo_list_standings_failed", err,
			"category_id", strings.TrimSpace(categoryID),
		)
	}
	items := make([]entities.ContestantStanding, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.ContestantStanding{
			ContestantID: row.ID,
			CategoryID:   row.CategoryID,
			Name:         row.Name,
			PhotoRef:     row.PhotoRef,
			VoteCount:    row.VoteCount,
		})
	}
	return items, nil
}

// AuditCounters compares each counter with the committed votes behind it. It
// only reads.
func (r *Repository) AuditCounters(ctx context.Context) ([]entities.CounterDrift, error) {
	var rows []driftRow
	if err := r.db.WithContext(ctx).
		Table("contestants AS c").
		Select("c.id AS contestant_id, c.vote_count AS counter_value, COUNT(v.id) AS committed_votes").
		Joins("LEFT JOIN votes AS v ON v.contestant_id = c.id AND v.state = ?", string(entities.VoteStateCommitted)).
		Group("c.id, c.vote_count").
		Having("c.vote_count <> COUNT(v.id)").
		Order("c.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("vote_engine_repo_audit_counters_failed", err)
	}
	items := make([]entities.CounterDrift, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.CounterDrift{
			ContestantID:   row.ContestantID,
			CounterValue:   row.CounterValue,
			CommittedVotes: row.CommittedVotes,
		})
	}
	return items, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("vote_engine_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("idempotency_key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("vote_engine_repo_idempotency_expire_delete_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		VoteID:      row.VoteID,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		VoteID:      strings.TrimSpace(record.VoteID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("vote_engine_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("vote_engine_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash || existing.VoteID != row.VoteID {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("vote_engine_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("vote_engine_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("vote_engine_repo_reserve_event_failed", create.Error,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("vote_engine_repo_reserve_event_load_existing_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrConflict
	}
	return true, nil
}

func (r *Repository) ReleaseEvent(ctx context.Context, eventID string) error {
	err := r.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Delete(&eventDedupModel{}).Error
	if err != nil {
		return r.logError("vote_engine_repo_release_event_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	return nil
}

// appendOutbox writes the event inside the caller's transaction. A zero
// envelope is skipped.
func appendOutbox(tx *gorm.DB, envelope ports.EventEnvelope) error {
	if strings.TrimSpace(envelope.EventID) == "" && strings.TrimSpace(envelope.EventType) == "" {
		return nil
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return create.Error
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := tx.Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return err
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "awards-voting/vote-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("vote ledger operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ ports.LedgerStore = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
