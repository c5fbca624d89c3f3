package creditpool

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medora/medora-api/internal/pkg/events"
)

// Service wraps pool operations with logging and low-pool alerting.
type Service struct {
	repo     Repository
	producer *events.Producer
}

func NewService(repo Repository, producer *events.Producer) *Service {
	return &Service{repo: repo, producer: producer}
}

func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	p, err := s.repo.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Pool: *p, IsLow: p.IsLow()}, nil
}

// AddCredits tops up the pool from an external purchase. The note is
// audit information for the operations log, not ledger state.
func (s *Service) AddCredits(ctx context.Context, amount int, note string, adminID string) (*Snapshot, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	p, err := s.repo.AddCredits(ctx, amount)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("amount", amount).
		Int("available_credits", p.AvailableCredits).
		Str("note", note).
		Str("admin_id", adminID).
		Msg("admin pool topped up")

	return &Snapshot{Pool: *p, IsLow: p.IsLow()}, nil
}

// ConsumeCredits moves credits out of the pool, failing closed when the
// pool cannot fund the amount.
func (s *Service) ConsumeCredits(ctx context.Context, amount int) (*Snapshot, error) {
	p, err := s.repo.ConsumeCredits(ctx, amount)
	if err != nil {
		return nil, err
	}

	s.alertIfLow(ctx, p)

	return &Snapshot{Pool: *p, IsLow: p.IsLow()}, nil
}

func (s *Service) UpdateLowThreshold(ctx context.Context, threshold int) (*Snapshot, error) {
	p, err := s.repo.UpdateLowThreshold(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Pool: *p, IsLow: p.IsLow()}, nil
}

// CheckLow re-reads the pool and raises the low alert if needed. Called by
// collaborators that consume pool credits inside their own transactions.
func (s *Service) CheckLow(ctx context.Context) {
	p, err := s.repo.GetOrCreate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to read pool for low check")
		return
	}
	s.alertIfLow(ctx, p)
}

// alertIfLow publishes a pool-low event after a consumption that left the
// pool at or under its threshold. Publishing is best effort; a broker
// outage never fails the consumption itself.
func (s *Service) alertIfLow(ctx context.Context, p *Pool) {
	if !p.IsLow() {
		return
	}

	err := s.producer.Publish(ctx, events.RoutePoolLow, events.PoolLowEvent{
		AvailableCredits: p.AvailableCredits,
		LowThreshold:     p.LowThreshold,
		At:               time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to publish pool low event")
	}
}
