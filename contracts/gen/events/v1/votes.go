package v1

const (
	EventTypeVoteCommitted = "vote.committed"
	EventTypeVoteFailed    = "vote.failed"

	VoteSchemaVersion = 1
)

// VoteCommitted is the Data of a vote.committed envelope.
type VoteCommitted struct {
	VoteID           string `json:"vote_id"`
	PaymentReference string `json:"payment_reference"`
	ContestantID     string `json:"contestant_id"`
	CategoryID       string `json:"category_id"`
	VoterEmail       string `json:"voter_email"`
	AmountMinor      int64  `json:"amount_minor"`
	Currency         string `json:"currency"`
	Channel          string `json:"channel,omitempty"`
	Source           string `json:"source"`
	CommittedAt      string `json:"committed_at"`
}

// VoteFailed is the Data of a vote.failed envelope.
type VoteFailed struct {
	VoteID           string `json:"vote_id"`
	PaymentReference string `json:"payment_reference"`
	ContestantID     string `json:"contestant_id"`
	CategoryID       string `json:"category_id"`
	VoterEmail       string `json:"voter_email"`
	Reason           string `json:"reason"`
	ProviderStatus   string `json:"provider_status,omitempty"`
	Source           string `json:"source"`
	FailedAt         string `json:"failed_at"`
}
