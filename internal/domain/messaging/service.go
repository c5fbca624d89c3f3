package messaging

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medora/medora-api/internal/domain/wallet"
	"github.com/medora/medora-api/internal/pkg/sms"
)

// previewLength caps the body excerpt stored in ledger metadata.
const previewLength = 64

// Debitor is the wallet operation the send path depends on.
type Debitor interface {
	Debit(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, amount int, reason string, meta map[string]interface{}) (*wallet.Wallet, error)
}

// Store persists outbound messages and delivery outcomes.
type Store interface {
	CreateMessage(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, body, mediaURL string, segments, recipientCount, cost int) (*OutboundMessage, error)
	RecordOutcomes(ctx context.Context, messageID uuid.UUID, results []sms.Result) ([]RecipientOutcome, error)
	ListMessages(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, limit, offset int) ([]OutboundMessage, error)
}

// Service charges wallets for outbound messages and dispatches them.
type Service struct {
	store     Store
	wallets   Debitor
	transport sms.Transport
	limiter   *RateLimiter
}

func NewService(store Store, wallets Debitor, transport sms.Transport, limiter *RateLimiter) *Service {
	return &Service{
		store:     store,
		wallets:   wallets,
		transport: transport,
		limiter:   limiter,
	}
}

// ChargeAndSend debits the caller's wallet for the full cost of the send,
// then dispatches to each recipient and records the outcomes. The debit
// happens before any dispatch, so an insufficient balance aborts the whole
// send. Individual delivery failures are recorded but not refunded.
func (s *Service) ChargeAndSend(ctx context.Context, callerID uuid.UUID, role, body string, recipients []string, mediaURL string) (*SendReport, error) {
	if len(body) == 0 {
		return nil, ErrEmptyMessage
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	ownerType, err := wallet.OwnerTypeForRole(role)
	if err != nil {
		return nil, err
	}

	limitKey := fmt.Sprintf("%s:%s", ownerType, callerID)
	if !s.limiter.Allow(ctx, limitKey) {
		return nil, ErrRateLimited
	}

	segments := Segments(body)
	cost := QuoteCost(body, len(recipients))

	meta := map[string]interface{}{
		"preview":    preview(body),
		"segments":   segments,
		"recipients": len(recipients),
	}

	w, err := s.wallets.Debit(ctx, callerID, ownerType, cost, wallet.ReasonSMSSend, meta)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.CreateMessage(ctx, callerID, ownerType, body, mediaURL, segments, len(recipients), cost)
	if err != nil {
		return nil, err
	}

	results := make([]sms.Result, 0, len(recipients))
	sent := 0
	for _, recipient := range recipients {
		res := s.transport.Send(ctx, recipient, body, mediaURL)
		if res.Status == sms.StatusSent {
			sent++
		}
		results = append(results, res)
	}

	outcomes, err := s.store.RecordOutcomes(ctx, msg.ID, results)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("message_id", msg.ID.String()).
		Str("owner_id", callerID.String()).
		Str("owner_type", string(ownerType)).
		Int("recipients", len(recipients)).
		Int("sent", sent).
		Int("cost", cost).
		Int("balance", w.Balance).
		Msg("outbound message dispatched")

	return &SendReport{
		MessageID: msg.ID,
		Segments:  segments,
		Cost:      cost,
		Balance:   w.Balance,
		Outcomes:  outcomes,
	}, nil
}

// ListMessages returns the caller's send history.
func (s *Service) ListMessages(ctx context.Context, callerID uuid.UUID, role string, limit, offset int) ([]OutboundMessage, error) {
	ownerType, err := wallet.OwnerTypeForRole(role)
	if err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, callerID, ownerType, limit, offset)
}

// preview truncates to previewLength bytes without splitting a UTF-8 rune.
func preview(body string) string {
	if len(body) <= previewLength {
		return body
	}
	cut := previewLength
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}
