package http

import "time"

const (
	// IdempotencyKeyHeader is optional on BeginVote.
	IdempotencyKeyHeader = "Idempotency-Key"
	// PaystackSignatureHeader carries hex(HMAC-SHA512(secret key, raw body)).
	PaystackSignatureHeader = "X-Paystack-Signature"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BeginVoteRequest struct {
	ContestantID string `json:"contestant_id"`
	VoterEmail   string `json:"voter_email"`
	AmountMinor  int64  `json:"amount_minor"`
}

type BeginVoteResponse struct {
	VoteID           string `json:"vote_id"`
	PaymentReference string `json:"payment_reference"`
	ContestantID     string `json:"contestant_id"`
	CategoryID       string `json:"category_id"`
	AmountMinor      int64  `json:"amount_minor"`
	Currency         string `json:"currency"`
	State            string `json:"state"`
	CheckoutURL      string `json:"checkout_url"`
	AccessCode       string `json:"access_code"`
	Replayed         bool   `json:"replayed"`
}

type ConfirmVoteRequest struct {
	PaymentReference string `json:"payment_reference"`
	Status           string `json:"status,omitempty"`
}

type ConfirmVoteResponse struct {
	Outcome          string `json:"outcome"`
	Counted          bool   `json:"counted"`
	Retryable        bool   `json:"retryable"`
	Message          string `json:"message"`
	VoteID           string `json:"vote_id"`
	PaymentReference string `json:"payment_reference"`
	ContestantID     string `json:"contestant_id"`
	State            string `json:"state"`
	FailureReason    string `json:"failure_reason,omitempty"`
	NewCount         int64  `json:"new_count,omitempty"`
}

type VoteStatusResponse struct {
	VoteID           string     `json:"vote_id"`
	PaymentReference string     `json:"payment_reference"`
	ContestantID     string     `json:"contestant_id"`
	CategoryID       string     `json:"category_id"`
	State            string     `json:"state"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	AmountMinor      int64      `json:"amount_minor"`
	Currency         string     `json:"currency"`
	CreatedAt        time.Time  `json:"created_at"`
	CommittedAt      *time.Time `json:"committed_at,omitempty"`
	FailedAt         *time.Time `json:"failed_at,omitempty"`
}

type StandingItem struct {
	ContestantID string `json:"contestant_id"`
	Name         string `json:"name"`
	PhotoRef     string `json:"photo_ref,omitempty"`
	VoteCount    int64  `json:"vote_count"`
	Rank         int    `json:"rank"`
}

type StandingsResponse struct {
	CategoryID string         `json:"category_id"`
	Items      []StandingItem `json:"items"`
}

type ContestantVotesResponse struct {
	ContestantID string `json:"contestant_id"`
	CategoryID   string `json:"category_id"`
	Name         string `json:"name"`
	VoteCount    int64  `json:"vote_count"`
}

type WebhookAckResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}
