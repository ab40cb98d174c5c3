package errors

import "errors"

var (
	ErrValidation                 = errors.New("invalid vote request")
	ErrContestantNotFound         = errors.New("contestant not found")
	ErrCategoryInactive           = errors.New("category is not accepting votes")
	ErrInvalidEmail               = errors.New("voter email is invalid")
	ErrAmountMismatch             = errors.New("amount does not match the vote price")
	ErrVoteNotFound               = errors.New("vote not found")
	ErrUnknownPaymentReference    = errors.New("unknown payment reference")
	ErrVoteNotPending             = errors.New("vote is no longer pending")
	ErrDuplicatePaymentReference  = errors.New("payment reference already exists")
	ErrVerificationPending        = errors.New("payment verification is pending")
	ErrVerificationFailed         = errors.New("payment verification failed")
	ErrStoreUnavailable           = errors.New("ledger store unavailable")
	ErrPaymentProviderUnavailable = errors.New("payment provider unavailable")
	ErrInvalidWebhookSignature    = errors.New("invalid webhook signature")
	ErrIdempotencyConflict        = errors.New("idempotency key conflict")
	ErrConflict                   = errors.New("vote conflict")
)
