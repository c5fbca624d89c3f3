package messaging

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medora/medora-api/internal/domain/wallet"
	"github.com/medora/medora-api/internal/pkg/sms"
)

type fakeDebitor struct {
	balance  int
	calls    int
	amounts  []int
	lastMeta map[string]interface{}
	err      error
}

func (f *fakeDebitor) Debit(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, amount int, reason string, meta map[string]interface{}) (*wallet.Wallet, error) {
	f.calls++
	f.amounts = append(f.amounts, amount)
	f.lastMeta = meta
	if f.err != nil {
		return nil, f.err
	}
	f.balance -= amount
	return &wallet.Wallet{OwnerID: ownerID, OwnerType: ownerType, Balance: f.balance}, nil
}

type fakeStore struct {
	messages []OutboundMessage
	outcomes []RecipientOutcome
}

func (f *fakeStore) CreateMessage(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, body, mediaURL string, segments, recipientCount, cost int) (*OutboundMessage, error) {
	msg := OutboundMessage{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		OwnerType:      ownerType,
		Body:           body,
		MediaURL:       mediaURL,
		Segments:       segments,
		RecipientCount: recipientCount,
		Cost:           cost,
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeStore) RecordOutcomes(ctx context.Context, messageID uuid.UUID, results []sms.Result) ([]RecipientOutcome, error) {
	outcomes := make([]RecipientOutcome, 0, len(results))
	for _, res := range results {
		outcomes = append(outcomes, RecipientOutcome{
			ID:        uuid.New(),
			MessageID: messageID,
			Recipient: res.Recipient,
			Status:    string(res.Status),
			Error:     res.Error,
		})
	}
	f.outcomes = append(f.outcomes, outcomes...)
	return outcomes, nil
}

func (f *fakeStore) ListMessages(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, limit, offset int) ([]OutboundMessage, error) {
	return f.messages, nil
}

type fakeTransport struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeTransport) Send(ctx context.Context, recipient, body, mediaURL string) sms.Result {
	f.sent = append(f.sent, recipient)
	if f.failFor[recipient] {
		return sms.Result{Recipient: recipient, Status: sms.StatusFailed, Error: "gateway timeout"}
	}
	return sms.Result{Recipient: recipient, Status: sms.StatusSent}
}

func TestChargeAndSend(t *testing.T) {
	callerID := uuid.New()

	t.Run("charges full cost before dispatching", func(t *testing.T) {
		debitor := &fakeDebitor{balance: 10}
		store := &fakeStore{}
		transport := &fakeTransport{}
		svc := NewService(store, debitor, transport, nil)

		body := strings.Repeat("a", 150)
		report, err := svc.ChargeAndSend(context.Background(), callerID, "doctor", body, []string{"+77011112233", "+77011112234", "+77011112235"}, "")
		require.NoError(t, err)

		assert.Equal(t, 3, report.Cost)
		assert.Equal(t, 1, report.Segments)
		assert.Equal(t, 7, report.Balance)
		assert.Equal(t, []int{3}, debitor.amounts)
		assert.Len(t, transport.sent, 3)
		assert.Len(t, report.Outcomes, 3)
		require.Len(t, store.messages, 1)
		assert.Equal(t, wallet.OwnerTypeDoctor, store.messages[0].OwnerType)
	})

	t.Run("insufficient balance aborts before any dispatch", func(t *testing.T) {
		debitor := &fakeDebitor{err: wallet.ErrInsufficientBalance}
		store := &fakeStore{}
		transport := &fakeTransport{}
		svc := NewService(store, debitor, transport, nil)

		_, err := svc.ChargeAndSend(context.Background(), callerID, "clinic", "hello", []string{"+77011112233"}, "")
		require.ErrorIs(t, err, wallet.ErrInsufficientBalance)

		assert.Empty(t, transport.sent)
		assert.Empty(t, store.messages)
	})

	t.Run("failed deliveries stay charged", func(t *testing.T) {
		debitor := &fakeDebitor{balance: 5}
		store := &fakeStore{}
		transport := &fakeTransport{failFor: map[string]bool{"+77019998877": true}}
		svc := NewService(store, debitor, transport, nil)

		report, err := svc.ChargeAndSend(context.Background(), callerID, "doctorStaff", "hello", []string{"+77011112233", "+77019998877"}, "")
		require.NoError(t, err)

		assert.Equal(t, 2, report.Cost)
		assert.Equal(t, 3, report.Balance)

		statuses := map[string]string{}
		for _, out := range report.Outcomes {
			statuses[out.Recipient] = out.Status
		}
		assert.Equal(t, string(sms.StatusSent), statuses["+77011112233"])
		assert.Equal(t, string(sms.StatusFailed), statuses["+77019998877"])
	})

	t.Run("rejects unmapped role without charging", func(t *testing.T) {
		debitor := &fakeDebitor{balance: 10}
		svc := NewService(&fakeStore{}, debitor, &fakeTransport{}, nil)

		_, err := svc.ChargeAndSend(context.Background(), callerID, "patient", "hello", []string{"+77011112233"}, "")
		require.ErrorIs(t, err, wallet.ErrUnmappedRole)
		assert.Zero(t, debitor.calls)
	})

	t.Run("rejects empty body and empty recipients", func(t *testing.T) {
		svc := NewService(&fakeStore{}, &fakeDebitor{balance: 10}, &fakeTransport{}, nil)

		_, err := svc.ChargeAndSend(context.Background(), callerID, "doctor", "", []string{"+77011112233"}, "")
		assert.ErrorIs(t, err, ErrEmptyMessage)

		_, err = svc.ChargeAndSend(context.Background(), callerID, "doctor", "hello", nil, "")
		assert.ErrorIs(t, err, ErrNoRecipients)
	})

	t.Run("ledger preview never splits a multibyte character", func(t *testing.T) {
		debitor := &fakeDebitor{balance: 100}
		svc := NewService(&fakeStore{}, debitor, &fakeTransport{}, nil)

		// 63 ASCII bytes followed by a 2-byte rune straddling the cutoff
		body := strings.Repeat("a", 63) + "é" + strings.Repeat("b", 200)
		_, err := svc.ChargeAndSend(context.Background(), callerID, "doctor", body, []string{"+77011112233"}, "")
		require.NoError(t, err)

		stored, ok := debitor.lastMeta["preview"].(string)
		require.True(t, ok)
		assert.True(t, utf8.ValidString(stored))
		assert.Equal(t, strings.Repeat("a", 63), stored)
	})

	t.Run("media url is passed through to the transport", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(store, &fakeDebitor{balance: 10}, &fakeTransport{}, nil)

		_, err := svc.ChargeAndSend(context.Background(), callerID, "clinic", "scan attached", []string{"+77011112233"}, "https://cdn.example.com/scan.png")
		require.NoError(t, err)
		require.Len(t, store.messages, 1)
		assert.Equal(t, "https://cdn.example.com/scan.png", store.messages[0].MediaURL)
	})
}
