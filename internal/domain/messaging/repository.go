package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medora/medora-api/internal/domain/wallet"
	"github.com/medora/medora-api/internal/pkg/sms"
)

const queryTimeout = 3 * time.Second

// Repository persists charged outbound messages and their per-recipient
// delivery outcomes.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreateMessage inserts the outbound message row after the wallet debit
// succeeded.
func (r *Repository) CreateMessage(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, body, mediaURL string, segments, recipientCount, cost int) (*OutboundMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO outbound_messages (id, owner_id, owner_type, body, media_url, segments, recipient_count, cost)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id, owner_id, owner_type, body, media_url, segments, recipient_count, cost, created_at
	`

	var msg OutboundMessage
	err := r.db.GetContext(ctx, &msg, query, ownerID, ownerType, body, mediaURL, segments, recipientCount, cost)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create outbound message: %v", ErrInternal, err)
	}

	return &msg, nil
}

// RecordOutcomes stores the transport result for each recipient of a
// message.
func (r *Repository) RecordOutcomes(ctx context.Context, messageID uuid.UUID, results []sms.Result) ([]RecipientOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO message_recipients (id, message_id, recipient, status, error)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, message_id, recipient, status, error, created_at
	`

	outcomes := make([]RecipientOutcome, 0, len(results))
	for _, res := range results {
		var out RecipientOutcome
		err := r.db.GetContext(ctx, &out, query, messageID, res.Recipient, string(res.Status), res.Error)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to record delivery outcome: %v", ErrInternal, err)
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}

// ListMessages returns an owner's sent messages, newest first.
func (r *Repository) ListMessages(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, limit, offset int) ([]OutboundMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, owner_id, owner_type, body, media_url, segments, recipient_count, cost, created_at
		FROM outbound_messages
		WHERE owner_id = $1 AND owner_type = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	messages := []OutboundMessage{}
	err := r.db.SelectContext(ctx, &messages, query, ownerID, ownerType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list outbound messages: %v", ErrInternal, err)
	}

	return messages, nil
}
