package wallet

import "errors"

var (
	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrInsufficientBalance is returned when the wallet cannot fund a debit
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrUnmappedRole is returned when a role has no wallet owner type
	ErrUnmappedRole = errors.New("role has no wallet owner type")

	ErrInternal = errors.New("internal error")
)
