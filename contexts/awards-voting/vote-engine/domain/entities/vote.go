package entities

import "time"

type VoteState string

const (
	VoteStatePending   VoteState = "pending"
	VoteStateCommitted VoteState = "committed"
	VoteStateFailed    VoteState = "failed"
)

// Failure reasons recorded on votes that end in VoteStateFailed.
const (
	FailureReasonPaymentFailed     = "payment_failed"
	FailureReasonAmountMismatch    = "amount_mismatch"
	FailureReasonCurrencyMismatch  = "currency_mismatch"
	FailureReasonSessionExpired    = "payment_session_expired"
	FailureReasonIntentFailed      = "intent_creation_failed"
	FailureReasonDuplicateBegin    = "duplicate_begin"
	FailureReasonReferenceNotFound = "provider_reference_not_found"
)

// Vote is one paid vote attempt. PaymentReference is unique across all
// votes regardless of state, and only a pending vote may change state.
type Vote struct {
	VoteID           string
	ContestantID     string
	CategoryID       string
	PaymentReference string
	AmountMinor      int64
	Currency         string
	VoterEmail       string
	State            VoteState
	FailureReason    string
	CountAfterCommit int64
	CheckoutURL      string
	AccessCode       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CommittedAt      *time.Time
	FailedAt         *time.Time
}

func (v Vote) IsPending() bool {
	return v.State == VoteStatePending
}

func (v Vote) IsTerminal() bool {
	return v.State == VoteStateCommitted || v.State == VoteStateFailed
}

// ContestantProjection is the read-only view of a catalog contestant used to
// validate vote requests. VoteCount is the ledger-owned aggregate.
type ContestantProjection struct {
	ContestantID   string
	CategoryID     string
	CategoryName   string
	CategoryActive bool
	Name           string
	PhotoRef       string
	VoteCount      int64
}

type ContestantStanding struct {
	ContestantID string
	CategoryID   string
	Name         string
	PhotoRef     string
	VoteCount    int64
	Rank         int
}

// CounterDrift reports a contestant whose counter disagrees with the number
// of committed votes recorded against it.
type CounterDrift struct {
	ContestantID   string
	CounterValue   int64
	CommittedVotes int64
}
