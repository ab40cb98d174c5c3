package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	application "paidvote/contexts/awards-voting/vote-engine/application"
	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	"paidvote/contexts/awards-voting/vote-engine/ports"
	contractsv1 "paidvote/contracts/gen/events/v1"
)

const (
	SourceClient     = "client"
	SourceWebhook    = "webhook"
	SourceReconciler = "reconciler"
	SourceSweeper    = "sweeper"
)

// BeginVoteCommand is the input for opening a paid vote.
type BeginVoteCommand struct {
	ContestantID   string
	VoterEmail     string
	AmountMinor    int64
	IdempotencyKey string
}

// BeginVoteResult carries the pending vote and the checkout handle the voter
// must complete. Replayed is set when an idempotency key matched.
type BeginVoteResult struct {
	Vote     entities.Vote
	Intent   entities.PaymentIntent
	Replayed bool
}

// ConfirmVoteCommand triggers verification of a payment. AssertedStatus is
// whatever the caller claims; it is logged and never trusted.
type ConfirmVoteCommand struct {
	PaymentReference string
	AssertedStatus   string
	Source           string
}

// VoteUseCase turns verified payments into exactly one committed vote and one
// counter increment per payment reference.
type VoteUseCase struct {
	Ledger         ports.LedgerStore
	Intents        ports.PaymentIntents
	Verifier       ports.PaymentVerifier
	Idempotency    ports.IdempotencyStore
	Metrics        ports.Metrics
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	VotePriceMinor int64
	Currency       string
	VerifyTimeout  time.Duration
	StoreTimeout   time.Duration
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// BeginVote validates the request, durably records a pending vote and opens a
// payment intent for it. The pending row exists before the intent is returned.
func (uc VoteUseCase) BeginVote(ctx context.Context, cmd BeginVoteCommand) (BeginVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	contestantID := strings.TrimSpace(cmd.ContestantID)
	logger.Info("vote begin processing started",
		"event", "vote_engine_begin_started",
		"module", "awards-voting/vote-engine",
		"layer", "application",
		"contestant_id", contestantID,
		"amount_minor", cmd.AmountMinor,
	)

	email, ok := normalizeEmail(cmd.VoterEmail)
	if !ok {
		logger.Warn("vote begin rejected invalid email",
			"event", "vote_engine_begin_invalid_email",
			"module", "awards-voting/vote-engine",
			"layer", "application",
			"contestant_id", contestantID,
		)
		return BeginVoteResult{}, validationError(domainerrors.ErrInvalidEmail)
	}
	if cmd.AmountMinor != uc.VotePriceMinor {
		logger.Warn("vote begin rejected amount mismatch",
			"event", "vote_engine_begin_amount_mismatch",
			"module", "awards-voting/vote-engine",
			"layer", "application",
			"contestant_id", contestantID,
			"amount_minor", cmd.AmountMinor,
			"expected_amount_minor", uc.VotePriceMinor,
		)
		return BeginVoteResult{}, validationError(domainerrors.ErrAmountMismatch)
	}
	if contestantID == "" {
		return BeginVoteResult{}, validationError(domainerrors.ErrContestantNotFound)
	}

	now := uc.now()
	idempotencyKey := strings.TrimSpace(cmd.IdempotencyKey)
	requestHash := ""
	if idempotencyKey != "" {
		requestHash = hashBeginVoteCommand(contestantID, email, cmd.AmountMinor)
		replay, found, err := uc.replayBegin(ctx, idempotencyKey, requestHash, now)
		if err != nil {
			return BeginVoteResult{}, err
		}
		if found {
			logger.Info("vote begin replayed",
				"event", "vote_engine_begin_replayed",
				"module", "awards-voting/vote-engine",
				"layer", "application",
				"vote_id", replay.Vote.VoteID,
				"payment_reference", replay.Vote.PaymentReference,
			)
			return replay, nil
		}
	}

	contestant, err := uc.loadContestant(ctx, contestantID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrContestantNotFound) {
			logger.Warn("vote begin rejected unknown contestant",
				"event", "vote_engine_begin_contestant_not_found",
				"module", "awards-voting/vote-engine",
				"layer", "application",
				"contestant_id", contestantID,
			)
			return BeginVoteResult{}, validationError(domainerrors.ErrContestantNotFound)
		}
		return BeginVoteResult{}, err
	}
	if !contestant.CategoryActive {
		logger.Warn("vote begin rejected inactive category",
			"event", "vote_engine_begin_category_inactive",
			"module", "awards-voting/vote-engine",
			"layer", "application",
			"contestant_id", contestantID,
			"category_id", contestant.CategoryID,
		)
		return BeginVoteResult{}, validationError(domainerrors.ErrCategoryInactive)
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return BeginVoteResult{}, err
	}
	referenceID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return BeginVoteResult{}, err
	}
	vote := entities.Vote{
		VoteID:           voteID,
		ContestantID:     contestant.ContestantID,
		CategoryID:       contestant.CategoryID,
		PaymentReference: "vote-" + referenceID,
		AmountMinor:      cmd.AmountMinor,
		Currency:         uc.Currency,
		VoterEmail:       email,
		State:            entities.VoteStatePending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	storeCtx, cancel := uc.withStoreTimeout(ctx)
	err = uc.Ledger.CreatePendingVote(storeCtx, vote)
	cancel()
	if err != nil {
		logger.Error("vote begin pending insert failed",
			"event", "vote_engine_begin_insert_failed",
			"module", "awards-voting/vote-engine",
			"layer", "application",
			"vote_id", vote.VoteID,
			"payment_reference", vote.PaymentReference,
			"error", err.Error(),
		)
		return BeginVoteResult{}, storeError(err)
	}

	intent, err := uc.createIntent(ctx, vote, contestant)
	if err != nil {
		logger.Error("vote begin intent creation failed",
			"event", "vote_engine_begin_intent_failed",
			"module", "awards-voting/vote-engine",
			"layer", "application",
			"vote_id", vote.VoteID,
			"payment_reference", vote.PaymentReference,
			"error", err.Error(),
		)
		if _, failErr := uc.failVote(ctx, vote, entities.FailureReasonIntentFailed, "", SourceClient); failErr != nil {
			logger.Error("vote begin failed to close pending vote",
				"event", "vote_engine_begin_close_pending_failed",
				"module", "awards-voting/vote-engine",
				"layer", "application",
				"vote_id", vote.VoteID,
				"error", failErr.Error(),
			)
		}
		return BeginVoteResult{}, providerError(err)
	}

	storeCtx, cancel = uc.withStoreTimeout(ctx)
	err = uc.Ledger.AttachIntent(storeCtx, vote.VoteID, intent.CheckoutURL, intent.AccessCode, now)
	cancel()
	if err != nil {
		return BeginVoteResult{}, storeError(err)
	}
	vote.CheckoutURL = intent.CheckoutURL
	vote.AccessCode = intent.AccessCode

	if idempotencyKey != "" {
		err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
			Key:         idempotencyKey,
			RequestHash: requestHash,
			VoteID:      vote.VoteID,
			ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
		})
		if errors.Is(err, domainerrors.ErrIdempotencyConflict) {
			// A concurrent request claimed the key first; its vote wins.
			if _, failErr := uc.failVote(ctx, vote, entities.FailureReasonDuplicateBegin, "", SourceClient); failErr != nil {
				return BeginVoteResult{}, failErr
			}
			replay, found, replayErr := uc.replayBegin(ctx, idempotencyKey, requestHash, now)
			if replayErr != nil {
				return BeginVoteResult{}, replayErr
			}
			if !found {
				return BeginVoteResult{}, domainerrors.ErrIdempotencyConflict
			}
			return replay, nil
		}
		if err != nil {
			return BeginVoteResult{}, storeError(err)
		}
	}

	logger.Info("vote begin completed",
		"event", "vote_engine_begin_completed",
		"module", "awards-voting/vote-engine",
		"layer", "application",
		"vote_id", vote.VoteID,
		"payment_reference", vote.PaymentReference,
		"contestant_id", vote.ContestantID,
		"category_id", vote.CategoryID,
	)
	return BeginVoteResult{Vote: vote, Intent: intent}, nil
}

// ConfirmVote verifies the payment behind a reference and, when it settled for
// the right amount, commits the vote and increments the contestant counter in
// one ledger transaction. Repeated calls for the same reference return the
// outcome of the first commit.
func (uc VoteUseCase) ConfirmVote(ctx context.Context, cmd ConfirmVoteCommand) (entities.VoteOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	reference := strings.TrimSpace(cmd.PaymentReference)
	source := resolveSource(cmd.Source)
	logger.Info("vote confirm processing started",
		"event", "vote_engine_confirm_started",
		"module", "awards-voting/vote-engine",
		"layer", "application",
		"payment_reference", reference,
		"source", source,
		"asserted_status", strings.TrimSpace(cmd.AssertedStatus),
	)
	if reference == "" {
		return entities.VoteOutcome{}, fmt.Errorf("%w: payment reference is required", domainerrors.ErrValidation)
	}

	storeCtx, cancel := uc.withStoreTimeout(ctx)
	vote, found, err := uc.Ledger.FindByPaymentReference(storeCtx, reference)
	cancel()
	if err != nil {
		logger.Error("vote confirm lookup failed",
			"event", "vote_engine_confirm_lookup_failed",
			"module", "awards-voting/vote-engine",
			"layer", "application",
			"payment_reference", reference,
			"error", err.Error(),
		)
		return entities.VoteOutcome{}, storeError(err)
	}
	if !found {
		logger.Warn("vote confirm for unknown payment reference",
			"event", "vote_engine_confirm_unknown_reference",
			"module", "awards-voting/vote-engine",
			"layer", "application",
			"payment_reference", reference,
			"source", source,
		)
		return entities.VoteOutcome{}, domainerrors.ErrUnknownPaymentReference
	}

	switch vote.State {
	case entities.VoteStateCommitted:
		return uc.finish(logger, entities.VoteOutcome{
			Kind:     entities.OutcomeAlreadyCommitted,
			Vote:     vote,
			NewCount: vote.CountAfterCommit,
		}, source), nil
	case entities.VoteStateFailed:
		return uc.finish(logger, entities.VoteOutcome{
			Kind: entities.OutcomeAlreadyFailed,
			Vote: vote,
		}, source), nil
	}

	verification, err := uc.verify(ctx, vote)
	if err != nil {
		logger.Warn("vote confirm verification unavailable",
			"event", "vote_engine_confirm_verify_unavailable",
			"module", "awards-voting/vote-engine",
			"layer", "application",
			"vote_id", vote.VoteID,
			"payment_reference", reference,
			"error", err.Error(),
		)
		return entities.VoteOutcome{}, providerError(err)
	}
	if asserted := strings.TrimSpace(cmd.AssertedStatus); asserted != "" &&
		!strings.EqualFold(asserted, string(verification.Status)) &&
		!strings.EqualFold(asserted, verification.ProviderStatus) {
		logger.Info("vote confirm asserted status differs from provider",
			"event", "vote_engine_confirm_asserted_status_mismatch",
			"module", "awards-voting/vote-engine",
			"layer", "application",
			"payment_reference", reference,
			"asserted_status", asserted,
			"provider_status", verification.ProviderStatus,
		)
	}

	switch verification.Status {
	case entities.PaymentStatusSucceeded:
		if reason := uc.settlementMismatch(vote, verification); reason != "" {
			logger.Warn("vote confirm settlement mismatch",
				"event", "vote_engine_confirm_settlement_mismatch",
				"module", "awards-voting/vote-engine",
				"layer", "application",
				"vote_id", vote.VoteID,
				"payment_reference", reference,
				"reason", reason,
				"settled_amount_minor", verification.AmountMinor,
				"settled_currency", verification.Currency,
			)
			return uc.rejectVote(ctx, logger, vote, reason, verification, source)
		}
		return uc.commitVote(ctx, logger, vote, verification, source)
	case entities.PaymentStatusFailed:
		reason := entities.FailureReasonPaymentFailed
		if verification.ProviderStatus == entities.ProviderStatusReferenceNotFound {
			reason = entities.FailureReasonReferenceNotFound
		}
		return uc.rejectVote(ctx, logger, vote, reason, verification, source)
	default:
		return uc.finish(logger, entities.VoteOutcome{
			Kind:      entities.OutcomeVerificationPending,
			Vote:      vote,
			Retryable: true,
		}, source), nil
	}
}

// ExpireVote fails a pending vote whose payment session ran out. It returns
// ErrVoteNotPending when the vote settled first.
func (uc VoteUseCase) ExpireVote(ctx context.Context, vote entities.Vote) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	expired, err := uc.failVote(ctx, vote, entities.FailureReasonSessionExpired, "", SourceSweeper)
	if err != nil {
		return entities.Vote{}, err
	}
	logger.Info("pending vote expired",
		"event", "vote_engine_vote_expired",
		"module", "awards-voting/vote-engine",
		"layer", "application",
		"vote_id", expired.VoteID,
		"payment_reference", expired.PaymentReference,
		"created_at", expired.CreatedAt,
	)
	return expired, nil
}

func (uc VoteUseCase) commitVote(
	ctx context.Context,
	logger *slog.Logger,
	vote entities.Vote,
	verification entities.PaymentVerification,
	source string,
) (entities.VoteOutcome, error) {
	now := uc.now()
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.VoteOutcome{}, err
	}
	envelope, err := newVoteEnvelope(eventID, contractsv1.EventTypeVoteCommitted, vote, now, contractsv1.VoteCommitted{
		VoteID:           vote.VoteID,
		PaymentReference: vote.PaymentReference,
		ContestantID:     vote.ContestantID,
		CategoryID:       vote.CategoryID,
		VoterEmail:       vote.VoterEmail,
		AmountMinor:      verification.AmountMinor,
		Currency:         verification.Currency,
		Channel:          verification.Channel,
		Source:           source,
		CommittedAt:      now.Format(time.RFC3339),
	})
	if err != nil {
		return entities.VoteOutcome{}, err
	}

	storeCtx, cancel := uc.withStoreTimeout(ctx)
	started := time.Now()
	newCount, err := uc.Ledger.CommitVoteAndIncrement(storeCtx, ports.CommitRequest{
		VoteID:       vote.VoteID,
		ContestantID: vote.ContestantID,
		CommittedAt:  now,
		Event:        envelope,
	})
	cancel()
	application.ResolveMetrics(uc.Metrics).ObserveCommitLatency(time.Since(started))
	if errors.Is(err, domainerrors.ErrVoteNotPending) {
		return uc.resolveSettled(ctx, logger, vote, verification, source)
	}
	if err != nil {
		logger.Error("vote commit failed",
			"event", "vote_engine_commit_failed",
			"module", "awards-voting/vote-engine",
			"layer", "application",
			"vote_id", vote.VoteID,
			"payment_reference", vote.PaymentReference,
			"contestant_id", vote.ContestantID,
			"error", err.Error(),
		)
		return entities.VoteOutcome{}, storeError(err)
	}

	vote.State = entities.VoteStateCommitted
	vote.CountAfterCommit = newCount
	vote.CommittedAt = &now
	vote.UpdatedAt = now
	return uc.finish(logger, entities.VoteOutcome{
		Kind:     entities.OutcomeCommitted,
		Vote:     vote,
		NewCount: newCount,
	}, source), nil
}

func (uc VoteUseCase) rejectVote(
	ctx context.Context,
	logger *slog.Logger,
	vote entities.Vote,
	reason string,
	verification entities.PaymentVerification,
	source string,
) (entities.VoteOutcome, error) {
	failed, err := uc.failVote(ctx, vote, reason, verification.ProviderStatus, source)
	if errors.Is(err, domainerrors.ErrVoteNotPending) {
		return uc.resolveSettled(ctx, logger, vote, verification, source)
	}
	if err != nil {
		logger.Error("vote failure transition failed",
			"event", "vote_engine_fail_transition_failed",
			"module", "awards-voting/vote-engine",
			"layer", "application",
			"vote_id", vote.VoteID,
			"payment_reference", vote.PaymentReference,
			"error", err.Error(),
		)
		return entities.VoteOutcome{}, err
	}
	return uc.finish(logger, entities.VoteOutcome{
		Kind: entities.OutcomeVerificationFailed,
		Vote: failed,
	}, source), nil
}

// resolveSettled reports the state another writer already settled the vote in.
func (uc VoteUseCase) resolveSettled(
	ctx context.Context,
	logger *slog.Logger,
	vote entities.Vote,
	verification entities.PaymentVerification,
	source string,
) (entities.VoteOutcome, error) {
	storeCtx, cancel := uc.withStoreTimeout(ctx)
	current, err := uc.Ledger.GetVote(storeCtx, vote.VoteID)
	cancel()
	if err != nil {
		return entities.VoteOutcome{}, storeError(err)
	}
	switch current.State {
	case entities.VoteStateCommitted:
		return uc.finish(logger, entities.VoteOutcome{
			Kind:     entities.OutcomeAlreadyCommitted,
			Vote:     current,
			NewCount: current.CountAfterCommit,
		}, source), nil
	case entities.VoteStateFailed:
		if verification.Status == entities.PaymentStatusSucceeded {
			logger.Warn("settled payment arrived for failed vote",
				"event", "vote_engine_settled_payment_on_failed_vote",
				"module", "awards-voting/vote-engine",
				"layer", "application",
				"vote_id", current.VoteID,
				"payment_reference", current.PaymentReference,
				"failure_reason", current.FailureReason,
				"settled_amount_minor", verification.AmountMinor,
			)
		}
		return uc.finish(logger, entities.VoteOutcome{
			Kind: entities.OutcomeAlreadyFailed,
			Vote: current,
		}, source), nil
	default:
		return entities.VoteOutcome{}, domainerrors.ErrConflict
	}
}

// failVote closes a pending vote with the given reason and records a
// vote.failed event alongside the transition.
func (uc VoteUseCase) failVote(
	ctx context.Context,
	vote entities.Vote,
	reason string,
	providerStatus string,
	source string,
) (entities.Vote, error) {
	now := uc.now()
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	envelope, err := newVoteEnvelope(eventID, contractsv1.EventTypeVoteFailed, vote, now, contractsv1.VoteFailed{
		VoteID:           vote.VoteID,
		PaymentReference: vote.PaymentReference,
		ContestantID:     vote.ContestantID,
		CategoryID:       vote.CategoryID,
		VoterEmail:       vote.VoterEmail,
		Reason:           reason,
		ProviderStatus:   providerStatus,
		Source:           source,
		FailedAt:         now.Format(time.RFC3339),
	})
	if err != nil {
		return entities.Vote{}, err
	}

	storeCtx, cancel := uc.withStoreTimeout(ctx)
	err = uc.Ledger.MarkVoteFailed(storeCtx, ports.FailRequest{
		VoteID:   vote.VoteID,
		Reason:   reason,
		FailedAt: now,
		Event:    envelope,
	})
	cancel()
	if err != nil {
		if errors.Is(err, domainerrors.ErrVoteNotPending) {
			return entities.Vote{}, err
		}
		return entities.Vote{}, storeError(err)
	}
	vote.State = entities.VoteStateFailed
	vote.FailureReason = reason
	vote.FailedAt = &now
	vote.UpdatedAt = now
	return vote, nil
}

func (uc VoteUseCase) verify(ctx context.Context, vote entities.Vote) (entities.PaymentVerification, error) {
	verifyCtx, cancel := context.WithTimeout(ctx, uc.verifyTimeout())
	defer cancel()
	started := time.Now()
	verification, err := uc.Verifier.Verify(verifyCtx, vote.PaymentReference, vote.AmountMinor)
	if err != nil {
		return entities.PaymentVerification{}, err
	}
	application.ResolveMetrics(uc.Metrics).ObserveVerification(verification.Status, time.Since(started))
	return verification, nil
}

func (uc VoteUseCase) createIntent(
	ctx context.Context,
	vote entities.Vote,
	contestant entities.ContestantProjection,
) (entities.PaymentIntent, error) {
	intentCtx, cancel := context.WithTimeout(ctx, uc.verifyTimeout())
	defer cancel()
	return uc.Intents.CreateIntent(intentCtx, ports.IntentRequest{
		Reference:      vote.PaymentReference,
		Email:          vote.VoterEmail,
		AmountMinor:    vote.AmountMinor,
		Currency:       vote.Currency,
		ContestantID:   contestant.ContestantID,
		ContestantName: contestant.Name,
		CategoryID:     contestant.CategoryID,
		CategoryName:   contestant.CategoryName,
	})
}

func (uc VoteUseCase) replayBegin(
	ctx context.Context,
	key string,
	requestHash string,
	now time.Time,
) (BeginVoteResult, bool, error) {
	record, found, err := uc.Idempotency.Get(ctx, key, now)
	if err != nil {
		return BeginVoteResult{}, false, storeError(err)
	}
	if !found {
		return BeginVoteResult{}, false, nil
	}
	if record.RequestHash != requestHash {
		return BeginVoteResult{}, false, domainerrors.ErrIdempotencyConflict
	}
	storeCtx, cancel := uc.withStoreTimeout(ctx)
	vote, err := uc.Ledger.GetVote(storeCtx, record.VoteID)
	cancel()
	if err != nil {
		return BeginVoteResult{}, false, storeError(err)
	}
	return BeginVoteResult{
		Vote: vote,
		Intent: entities.PaymentIntent{
			Reference:   vote.PaymentReference,
			CheckoutURL: vote.CheckoutURL,
			AccessCode:  vote.AccessCode,
		},
		Replayed: true,
	}, true, nil
}

func (uc VoteUseCase) loadContestant(ctx context.Context, contestantID string) (entities.ContestantProjection, error) {
	storeCtx, cancel := uc.withStoreTimeout(ctx)
	defer cancel()
	contestant, err := uc.Ledger.GetContestant(storeCtx, contestantID)
	if err != nil {
		return entities.ContestantProjection{}, storeError(err)
	}
	return contestant, nil
}

func (uc VoteUseCase) settlementMismatch(vote entities.Vote, verification entities.PaymentVerification) string {
	if verification.AmountMinor != vote.AmountMinor {
		return entities.FailureReasonAmountMismatch
	}
	if verification.Currency != "" && !strings.EqualFold(verification.Currency, vote.Currency) {
		return entities.FailureReasonCurrencyMismatch
	}
	return ""
}

func (uc VoteUseCase) finish(logger *slog.Logger, outcome entities.VoteOutcome, source string) entities.VoteOutcome {
	application.ResolveMetrics(uc.Metrics).ObserveOutcome(outcome.Kind, source)
	logger.Info("vote confirm completed",
		"event", "vote_engine_confirm_completed",
		"module", "awards-voting/vote-engine",
		"layer", "application",
		"vote_id", outcome.Vote.VoteID,
		"payment_reference", outcome.Vote.PaymentReference,
		"contestant_id", outcome.Vote.ContestantID,
		"outcome", string(outcome.Kind),
		"new_count", outcome.NewCount,
		"source", source,
	)
	return outcome
}

func (uc VoteUseCase) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := uc.StoreTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (uc VoteUseCase) verifyTimeout() time.Duration {
	if uc.VerifyTimeout <= 0 {
		return 10 * time.Second
	}
	return uc.VerifyTimeout
}

func (uc VoteUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func normalizeEmail(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	address, err := mail.ParseAddress(value)
	if err != nil || address.Name != "" || address.Address != value {
		return "", false
	}
	return strings.ToLower(address.Address), true
}

func resolveSource(source string) string {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case SourceWebhook:
		return SourceWebhook
	case SourceReconciler:
		return SourceReconciler
	default:
		return SourceClient
	}
}

func validationError(err error) error {
	return fmt.Errorf("%w: %w", domainerrors.ErrValidation, err)
}

// storeError keeps domain sentinels visible and classifies everything else
// as a retryable storage failure.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		domainerrors.ErrStoreUnavailable,
		domainerrors.ErrContestantNotFound,
		domainerrors.ErrVoteNotFound,
		domainerrors.ErrVoteNotPending,
		domainerrors.ErrDuplicatePaymentReference,
		domainerrors.ErrIdempotencyConflict,
		domainerrors.ErrConflict,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", domainerrors.ErrStoreUnavailable, err)
}

func providerError(err error) error {
	if errors.Is(err, domainerrors.ErrPaymentProviderUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domainerrors.ErrPaymentProviderUnavailable, err)
}
