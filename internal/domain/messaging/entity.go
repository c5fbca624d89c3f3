package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/medora/medora-api/internal/domain/wallet"
)

// OutboundMessage records one charged send: the message, its segment
// count, and the total cost debited before dispatch.
type OutboundMessage struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	OwnerID        uuid.UUID        `db:"owner_id" json:"owner_id"`
	OwnerType      wallet.OwnerType `db:"owner_type" json:"owner_type"`
	Body           string           `db:"body" json:"body"`
	MediaURL       string           `db:"media_url" json:"media_url,omitempty"`
	Segments       int              `db:"segments" json:"segments"`
	RecipientCount int              `db:"recipient_count" json:"recipient_count"`
	Cost           int              `db:"cost" json:"cost"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// RecipientOutcome is the per-recipient transport result. Failed
// deliveries stay charged; the outcome row is the audit trail for the
// attempt.
type RecipientOutcome struct {
	ID        uuid.UUID `db:"id" json:"id"`
	MessageID uuid.UUID `db:"message_id" json:"message_id"`
	Recipient string    `db:"recipient" json:"recipient"`
	Status    string    `db:"status" json:"status"`
	Error     string    `db:"error" json:"error,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SendReport is the API response for a charged send.
type SendReport struct {
	MessageID uuid.UUID          `json:"message_id"`
	Segments  int                `json:"segments"`
	Cost      int                `json:"cost"`
	Balance   int                `json:"balance"`
	Outcomes  []RecipientOutcome `json:"outcomes"`
}
