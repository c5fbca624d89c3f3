package sms

import "context"

// DeliveryStatus is the per-recipient outcome reported by the gateway.
type DeliveryStatus string

const (
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)

// Result is the outcome of one delivery attempt.
type Result struct {
	Recipient string
	Status    DeliveryStatus
	Error     string
}

// Transport attempts delivery of one rendered message to one recipient.
// It is invoked only after the sender's wallet has been debited.
type Transport interface {
	Send(ctx context.Context, recipient, body, mediaURL string) Result
}
