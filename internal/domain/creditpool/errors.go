package creditpool

import "errors"

var (
	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrInvalidThreshold is returned when a negative threshold is supplied
	ErrInvalidThreshold = errors.New("invalid threshold: must not be negative")

	// ErrInsufficientAdminCredits is returned when the pool cannot fund a consumption
	ErrInsufficientAdminCredits = errors.New("insufficient admin credits")

	ErrInternal = errors.New("internal error")
)
