package topup

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/medora/medora-api/internal/domain/creditpool"
	"github.com/medora/medora-api/internal/domain/wallet"
)

// Service coordinates the top-up workflow. Approval spans three domains —
// request status, admin pool, owner wallet — inside one database
// transaction, so a crash or a failed step leaves either "not applied" or
// "fully applied", never a partial state.
type Service struct {
	repo       *Repository
	db         *sqlx.DB
	poolRepo   creditpool.Repository
	pool       *creditpool.Service
	walletRepo *wallet.Repository
}

func NewService(repo *Repository, db *sqlx.DB, poolRepo creditpool.Repository, pool *creditpool.Service, walletRepo *wallet.Repository) *Service {
	return &Service{
		repo:       repo,
		db:         db,
		poolRepo:   poolRepo,
		pool:       pool,
		walletRepo: walletRepo,
	}
}

// Create files a new pending request for the calling owner.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, role string, credits int, note string) (*Request, error) {
	ownerType, err := wallet.OwnerTypeForRole(role)
	if err != nil {
		return nil, err
	}

	if credits <= 0 {
		return nil, ErrInvalidAmount
	}

	req, err := s.repo.Create(ctx, ownerID, ownerType, credits, note)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", req.ID.String()).
		Str("owner_id", ownerID.String()).
		Str("owner_type", string(ownerType)).
		Int("credits", credits).
		Msg("topup request created")

	return req, nil
}

// List returns requests visible to the caller. Admins see everything;
// owners only their own.
func (s *Service) List(ctx context.Context, callerID uuid.UUID, role string, status *Status, limit, offset int) ([]Request, error) {
	filter := ListFilter{Status: status, Limit: limit, Offset: offset}

	if role != "admin" {
		ownerType, err := wallet.OwnerTypeForRole(role)
		if err != nil {
			return nil, err
		}
		filter.OwnerID = &callerID
		filter.OwnerType = &ownerType
	}

	return s.repo.List(ctx, filter)
}

// Resolve applies an admin decision exactly once.
//
// Approval order inside the transaction: (1) guarded status flip — the
// one-shot idempotency gate, (2) pool consumption with its balance guard,
// (3) wallet credit plus ledger entry. Any failure rolls the whole
// transaction back: an underfunded pool leaves the request pending and
// untouched.
func (s *Service) Resolve(ctx context.Context, requestID uuid.UUID, decision Status, adminNote string, adminID uuid.UUID) (*Request, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInternal, decision)
	}

	// Existence check up front so an unknown id reads as NotFound rather
	// than AlreadyProcessed.
	existing, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusPending {
		return nil, ErrAlreadyProcessed
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	req, err := s.repo.MarkResolvedTx(ctx, tx, requestID, decision, adminNote, adminID)
	if err != nil {
		return nil, err
	}

	if decision == StatusApproved {
		if err := s.poolRepo.ConsumeTx(ctx, tx, req.Credits); err != nil {
			return nil, err
		}

		meta := map[string]interface{}{
			"topup_request_id": req.ID.String(),
			"admin_id":         adminID.String(),
		}
		if _, err := s.walletRepo.CreditTx(ctx, tx, req.OwnerID, req.OwnerType, req.Credits, wallet.ReasonTopupApproved, meta); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	log.Info().
		Str("request_id", req.ID.String()).
		Str("status", string(req.Status)).
		Int("credits", req.Credits).
		Str("admin_id", adminID.String()).
		Msg("topup request resolved")

	if decision == StatusApproved {
		s.pool.CheckLow(ctx)
	}

	return req, nil
}
