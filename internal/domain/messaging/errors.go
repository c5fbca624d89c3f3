package messaging

import "errors"

var (
	// ErrEmptyMessage is returned when there is nothing to send
	ErrEmptyMessage = errors.New("message body is empty")

	// ErrNoRecipients is returned when the recipient list is empty
	ErrNoRecipients = errors.New("no recipients")

	// ErrRateLimited is returned when the owner exceeded the send rate
	ErrRateLimited = errors.New("send rate limit exceeded")

	ErrInternal = errors.New("internal error")
)
