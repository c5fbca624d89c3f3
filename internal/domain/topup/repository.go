package topup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medora/medora-api/internal/domain/wallet"
)

const queryTimeout = 3 * time.Second

const requestColumns = `id, owner_id, owner_type, credits, note, admin_note, status,
	resolved_by, resolved_at, created_at, updated_at`

// Repository persists top-up requests. The status column is the single
// source of truth for "has this request already been applied": every
// resolution goes through a guarded UPDATE on status = 'pending'.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, credits int, note string) (*Request, error) {
	if credits <= 0 {
		return nil, ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var req Request
	err := r.db.GetContext(ctx2, &req, `
		INSERT INTO topup_requests (id, owner_id, owner_type, credits, note, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, 'pending')
		RETURNING `+requestColumns+`
	`, ownerID, string(ownerType), credits, note)
	if err != nil {
		return nil, fmt.Errorf("%w: create topup request", ErrInternal)
	}

	return &req, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var req Request
	err := r.db.GetContext(ctx2, &req, `
		SELECT `+requestColumns+`
		FROM topup_requests
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get topup request", ErrInternal)
	}

	return &req, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Request, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	base := `
		SELECT ` + requestColumns + `
		FROM topup_requests
		WHERE 1=1`
	args := make([]interface{}, 0, 6)
	idx := 1

	if filter.OwnerID != nil {
		base += fmt.Sprintf(" AND owner_id = $%d", idx)
		args = append(args, *filter.OwnerID)
		idx++
	}
	if filter.OwnerType != nil {
		base += fmt.Sprintf(" AND owner_type = $%d", idx)
		args = append(args, string(*filter.OwnerType))
		idx++
	}
	if filter.Status != nil {
		base += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, string(*filter.Status))
		idx++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	base += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filter.Offset)

	requests := make([]Request, 0)
	if err := r.db.SelectContext(ctx2, &requests, base, args...); err != nil {
		return nil, fmt.Errorf("%w: list topup requests", ErrInternal)
	}

	return requests, nil
}

// MarkResolvedTx flips a pending request to its terminal status within an
// external transaction. Zero rows affected means the request was already
// resolved (possibly by a concurrent admin); the caller maps that to
// ErrAlreadyProcessed. The row lock taken by this UPDATE also serializes
// concurrent approvals of the same request.
func (r *Repository) MarkResolvedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status, adminNote string, adminID uuid.UUID) (*Request, error) {
	var req Request
	err := tx.GetContext(ctx, &req, `
		UPDATE topup_requests
		SET status = $2,
		    admin_note = $3,
		    resolved_by = $4,
		    resolved_at = now(),
		    updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+requestColumns+`
	`, id, string(status), adminNote, adminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("%w: resolve topup request", ErrInternal)
	}

	return &req, nil
}
