package topup

import "errors"

var (
	// ErrInvalidAmount is returned when requested credits are <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrNotFound is returned for an unknown request id
	ErrNotFound = errors.New("topup request not found")

	// ErrAlreadyProcessed is returned when resolving a non-pending request.
	// Balance changes are never re-applied.
	ErrAlreadyProcessed = errors.New("topup request already processed")

	ErrInternal = errors.New("internal error")
)
