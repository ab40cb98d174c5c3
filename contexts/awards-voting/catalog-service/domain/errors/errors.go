package errors

import "errors"

var (
	ErrValidation         = errors.New("invalid catalog request")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrContestantNotFound = errors.New("contestant not found")
	ErrStoreUnavailable   = errors.New("catalog store unavailable")
)
