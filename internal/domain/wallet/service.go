package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/medora/medora-api/internal/domain/creditpool"
	"github.com/medora/medora-api/internal/pkg/events"
)

// Service wraps wallet operations with validation, logging and the
// low-balance notification side channel.
type Service struct {
	repo         *Repository
	db           *sqlx.DB
	poolRepo     creditpool.Repository
	pool         *creditpool.Service
	producer     *events.Producer
	lowThreshold int
}

func NewService(repo *Repository, db *sqlx.DB, poolRepo creditpool.Repository, pool *creditpool.Service, producer *events.Producer, lowThreshold int) *Service {
	return &Service{
		repo:         repo,
		db:           db,
		poolRepo:     poolRepo,
		pool:         pool,
		producer:     producer,
		lowThreshold: lowThreshold,
	}
}

func (s *Service) GetOrCreate(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType) (*Wallet, error) {
	return s.repo.GetOrCreate(ctx, ownerID, ownerType)
}

func (s *Service) ListLedger(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, limit, offset int) ([]LedgerEntry, error) {
	return s.repo.ListLedger(ctx, ownerID, ownerType, limit, offset)
}

// Debit removes credits, failing closed on insufficient balance, and emits
// a low-balance event after commit when the debounced threshold check fires.
func (s *Service) Debit(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, amount int, reason string, meta map[string]interface{}) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	w, notify, err := s.repo.Debit(ctx, ownerID, ownerType, amount, reason, meta, s.lowThreshold, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("owner_id", ownerID.String()).
		Str("owner_type", string(ownerType)).
		Int("amount", amount).
		Str("reason", reason).
		Int("balance", w.Balance).
		Msg("wallet debited")

	if notify {
		s.publishLowBalance(ctx, w)
	}

	return w, nil
}

// AdminAdjust issues a manual credit to a wallet, drawn from the admin
// pool in the same transaction so the conservation invariant holds: the
// sum of wallet balances can never exceed what the pool actually funded.
func (s *Service) AdminAdjust(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, amount int, note string, adminID uuid.UUID) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if err := s.poolRepo.ConsumeTx(ctx, tx, amount); err != nil {
		return nil, err
	}

	meta := map[string]interface{}{
		"admin_id": adminID.String(),
	}
	if note != "" {
		meta["note"] = note
	}

	w, err := s.repo.CreditTx(ctx, tx, ownerID, ownerType, amount, ReasonManualCredit, meta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	log.Info().
		Str("owner_id", ownerID.String()).
		Str("owner_type", string(ownerType)).
		Int("amount", amount).
		Str("admin_id", adminID.String()).
		Msg("manual wallet credit applied")

	s.pool.CheckLow(ctx)

	return w, nil
}

func (s *Service) publishLowBalance(ctx context.Context, w *Wallet) {
	err := s.producer.Publish(ctx, events.RouteWalletLowBalance, events.LowBalanceEvent{
		OwnerID:   w.OwnerID.String(),
		OwnerType: string(w.OwnerType),
		Balance:   w.Balance,
		Threshold: s.lowThreshold,
		At:        time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("owner_id", w.OwnerID.String()).Msg("failed to publish low balance event")
	}
}
