package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	"paidvote/contexts/awards-voting/vote-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

// Store is the in-process ledger. A single mutex serializes every state
// transition, so a commit and its counter increment are observed together.
// Dedup reservations are kept for the life of the process.
type Store struct {
	mu sync.RWMutex

	votes       map[string]entities.Vote
	references  map[string]string
	contestants map[string]entities.ContestantProjection
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
	eventDedup  map[string]dedupRecord
}

func NewStore(seed []entities.Vote) *Store {
	store := &Store{
		votes:       make(map[string]entities.Vote, len(seed)),
		references:  make(map[string]string, len(seed)),
		contestants: make(map[string]entities.ContestantProjection),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
		eventDedup:  make(map[string]dedupRecord),
	}
	for _, vote := range seed {
		store.votes[vote.VoteID] = vote
		store.references[vote.PaymentReference] = vote.VoteID
	}
	return store
}

// SetContestant registers a catalog contestant. An existing counter value is
// kept so reseeding never rewrites committed totals.
func (s *Store) SetContestant(contestant entities.ContestantProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimSpace(contestant.ContestantID)
	if existing, ok := s.contestants[id]; ok {
		contestant.VoteCount = existing.VoteCount
	}
	contestant.ContestantID = id
	contestant.CategoryID = strings.TrimSpace(contestant.CategoryID)
	s.contestants[id] = contestant
}

func (s *Store) CreatePendingVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.references[vote.PaymentReference]; exists {
		return domainerrors.ErrDuplicatePaymentReference
	}
	if _, exists := s.votes[vote.VoteID]; exists {
		return domainerrors.ErrConflict
	}
	vote.State = entities.VoteStatePending
	s.votes[vote.VoteID] = vote
	s.references[vote.PaymentReference] = vote.VoteID
	return nil
}

func (s *Store) AttachIntent(_ context.Context, voteID string, checkoutURL string, accessCode string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return domainerrors.ErrVoteNotFound
	}
	vote.CheckoutURL = checkoutURL
	vote.AccessCode = accessCode
	vote.UpdatedAt = updatedAt.UTC()
	s.votes[vote.VoteID] = vote
	return nil
}

func (s *Store) GetVote(_ context.Context, voteID string) (entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

func (s *Store) FindByPaymentReference(_ context.Context, paymentReference string) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	voteID, ok := s.references[strings.TrimSpace(paymentReference)]
	if !ok {
		return entities.Vote{}, false, nil
	}
	return s.votes[voteID], true, nil
}

func (s *Store) CommitVoteAndIncrement(_ context.Context, req ports.CommitRequest) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vote, ok := s.votes[strings.TrimSpace(req.VoteID)]
	if !ok {
		return 0, domainerrors.ErrVoteNotFound
	}
	if vote.State != entities.VoteStatePending {
		return 0, domainerrors.ErrVoteNotPending
	}
	contestant, ok := s.contestants[strings.TrimSpace(req.ContestantID)]
	if !ok {
		return 0, domainerrors.ErrContestantNotFound
	}
	if err := s.appendOutboxLocked(req.Event); err != nil {
		return 0, err
	}

	contestant.VoteCount++
	s.contestants[contestant.ContestantID] = contestant

	committedAt := req.CommittedAt.UTC()
	vote.State = entities.VoteStateCommitted
	vote.CommittedAt = &committedAt
	vote.UpdatedAt = committedAt
	vote.CountAfterCommit = contestant.VoteCount
	s.votes[vote.VoteID] = vote
	return contestant.VoteCount, nil
}

func (s *Store) MarkVoteFailed(_ context.Context, req ports.FailRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vote, ok := s.votes[strings.TrimSpace(req.VoteID)]
	if !ok {
		return domainerrors.ErrVoteNotFound
	}
	if vote.State != entities.VoteStatePending {
		return domainerrors.ErrVoteNotPending
	}
	if err := s.appendOutboxLocked(req.Event); err != nil {
		return err
	}
	failedAt := req.FailedAt.UTC()
	vote.State = entities.VoteStateFailed
	vote.FailureReason = req.Reason
	vote.FailedAt = &failedAt
	vote.UpdatedAt = failedAt
	s.votes[vote.VoteID] = vote
	return nil
}

func (s *Store) ListPendingVotes(_ context.Context, createdBefore time.Time, limit int) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.State == entities.VoteStatePending && vote.CreatedAt.Before(createdBefore) {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) GetContestant(_ context.Context, contestantID string) (entities.ContestantProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contestant, ok := s.contestants[strings.TrimSpace(contestantID)]
	if !ok {
		return entities.ContestantProjection{}, domainerrors.ErrContestantNotFound
	}
	return contestant, nil
}

func (s *Store) ListStandings(_ context.Context, categoryID string) ([]entities.ContestantStanding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.ContestantStanding, 0)
	for _, contestant := range s.contestants {
		if contestant.CategoryID != strings.TrimSpace(categoryID) {
			continue
		}
		items = append(items, entities.ContestantStanding{
			ContestantID: contestant.ContestantID,
			CategoryID:   contestant.CategoryID,
			Name:         contestant.Name,
			PhotoRef:     contestant.PhotoRef,
			VoteCount:    contestant.VoteCount,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].VoteCount == items[j].VoteCount {
			return items[i].Name < items[j].Name
		}
		return items[i].VoteCount > items[j].VoteCount
	})
	return items, nil
}

func (s *Store) AuditCounters(_ context.Context) ([]entities.CounterDrift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	committed := make(map[string]int64, len(s.contestants))
	for _, vote := range s.votes {
		if vote.State == entities.VoteStateCommitted {
			committed[vote.ContestantID]++
		}
	}
	drifts := make([]entities.CounterDrift, 0)
	for id, contestant := range s.contestants {
		if contestant.VoteCount != committed[id] {
			drifts = append(drifts, entities.CounterDrift{
				ContestantID:   id,
				CounterValue:   contestant.VoteCount,
				CommittedVotes: committed[id],
			})
		}
	}
	sort.Slice(drifts, func(i, j int) bool {
		return drifts[i].ContestantID < drifts[j].ContestantID
	})
	return drifts, nil
}

// VoteCount reads one contestant counter.
func (s *Store) VoteCount(contestantID string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contestant, ok := s.contestants[contestantID]
	return contestant.VoteCount, ok
}

// ForceCounter overwrites a counter. It exists only to simulate corruption
// in auditor tests.
func (s *Store) ForceCounter(contestantID string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contestant := s.contestants[contestantID]
	contestant.VoteCount = value
	s.contestants[contestantID] = contestant
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = strings.TrimSpace(key)
	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	if existing, exists := s.idempotency[key]; exists {
		if existing.RequestHash != record.RequestHash || existing.VoteID != record.VoteID {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: strings.TrimSpace(record.RequestHash),
		VoteID:      strings.TrimSpace(record.VoteID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	return nil
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	if strings.TrimSpace(envelope.EventID) == "" && strings.TrimSpace(envelope.EventType) == "" {
		return nil
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if existing, ok := s.eventDedup[key]; ok {
		if existing.payloadHash != strings.TrimSpace(payloadHash) {
			return false, domainerrors.ErrConflict
		}
		return true, nil
	}
	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) ReleaseEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.eventDedup, strings.TrimSpace(eventID))
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.LedgerStore = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.EventDedupStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
