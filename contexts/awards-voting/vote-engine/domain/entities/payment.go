package entities

import (
	"time"

	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
)

type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusPending   PaymentStatus = "pending"
)

// ProviderStatusReferenceNotFound is reported when the provider has no
// transaction for the reference at all.
const ProviderStatusReferenceNotFound = "reference_not_found"

// PaymentVerification is the provider's authoritative view of a payment.
type PaymentVerification struct {
	Reference      string
	Status         PaymentStatus
	AmountMinor    int64
	Currency       string
	ProviderStatus string
	Channel        string
	PaidAt         *time.Time
}

type PaymentIntent struct {
	Reference   string
	CheckoutURL string
	AccessCode  string
}

type OutcomeKind string

const (
	OutcomeCommitted           OutcomeKind = "committed"
	OutcomeAlreadyCommitted    OutcomeKind = "already_committed"
	OutcomeAlreadyFailed       OutcomeKind = "already_failed"
	OutcomeVerificationFailed  OutcomeKind = "verification_failed"
	OutcomeVerificationPending OutcomeKind = "verification_pending"
)

// VoteOutcome is the result of a confirmation attempt. NewCount is only
// meaningful when Counted reports true.
type VoteOutcome struct {
	Kind      OutcomeKind
	Vote      Vote
	NewCount  int64
	Retryable bool
}

func (o VoteOutcome) Counted() bool {
	return o.Kind == OutcomeCommitted || o.Kind == OutcomeAlreadyCommitted
}

// Err explains why the vote was not counted. It is nil for counted outcomes.
func (o VoteOutcome) Err() error {
	switch o.Kind {
	case OutcomeCommitted, OutcomeAlreadyCommitted:
		return nil
	case OutcomeVerificationPending:
		return domainerrors.ErrVerificationPending
	default:
		return domainerrors.ErrVerificationFailed
	}
}
