package creditpool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// poolID is the fixed primary key of the singleton row.
const poolID = 1

type Repository interface {
	GetOrCreate(ctx context.Context) (*Pool, error)
	AddCredits(ctx context.Context, amount int) (*Pool, error)
	ConsumeCredits(ctx context.Context, amount int) (*Pool, error)
	ConsumeTx(ctx context.Context, tx *sqlx.Tx, amount int) error
	UpdateLowThreshold(ctx context.Context, threshold int) (*Pool, error)
}

// PoolRepository provides admin credit pool operations backed by Postgres.
// All mutations are single conditional statements; mutual exclusion comes
// from the row, not from in-process locks.
type PoolRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

// ensure lazily creates the singleton row. Concurrent first access
// converges on one row via the ON CONFLICT clause.
func (r *PoolRepository) ensure(ctx context.Context, q sqlx.ExtContext) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO admin_credit_pool (id)
		VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, poolID)
	if err != nil {
		return fmt.Errorf("%w: ensure pool row", ErrInternal)
	}
	return nil
}

func (r *PoolRepository) get(ctx context.Context, q sqlx.ExtContext) (*Pool, error) {
	var p Pool
	err := sqlx.GetContext(ctx, q, &p, `
		SELECT id, available_credits, total_added, total_consumed, low_threshold, last_topup_at, updated_at
		FROM admin_credit_pool
		WHERE id = $1
	`, poolID)
	if err != nil {
		return nil, fmt.Errorf("%w: get pool", ErrInternal)
	}
	return &p, nil
}

func (r *PoolRepository) GetOrCreate(ctx context.Context) (*Pool, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := r.ensure(ctx2, r.db); err != nil {
		return nil, err
	}
	return r.get(ctx2, r.db)
}

func (r *PoolRepository) AddCredits(ctx context.Context, amount int) (*Pool, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := r.ensure(ctx2, r.db); err != nil {
		return nil, err
	}

	var p Pool
	err := sqlx.GetContext(ctx2, r.db, &p, `
		UPDATE admin_credit_pool
		SET available_credits = available_credits + $2,
		    total_added = total_added + $2,
		    last_topup_at = now(),
		    updated_at = now()
		WHERE id = $1
		RETURNING id, available_credits, total_added, total_consumed, low_threshold, last_topup_at, updated_at
	`, poolID, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: add credits", ErrInternal)
	}

	return &p, nil
}

// ConsumeCredits atomically moves credits out of the pool. The balance
// guard lives in the WHERE clause so two concurrent consumers can never
// both succeed against the same remaining credits.
func (r *PoolRepository) ConsumeCredits(ctx context.Context, amount int) (*Pool, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := r.ensure(ctx2, r.db); err != nil {
		return nil, err
	}

	var p Pool
	err := sqlx.GetContext(ctx2, r.db, &p, `
		UPDATE admin_credit_pool
		SET available_credits = available_credits - $2,
		    total_consumed = total_consumed + $2,
		    updated_at = now()
		WHERE id = $1 AND available_credits >= $2
		RETURNING id, available_credits, total_added, total_consumed, low_threshold, last_topup_at, updated_at
	`, poolID, amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInsufficientAdminCredits
		}
		return nil, fmt.Errorf("%w: consume credits", ErrInternal)
	}

	return &p, nil
}

// ConsumeTx consumes pool credits within an external transaction. Used by
// top-up approval and manual wallet adjustments, which must debit the pool
// and credit a wallet atomically. Does NOT commit or rollback — the caller
// owns the transaction.
func (r *PoolRepository) ConsumeTx(ctx context.Context, tx *sqlx.Tx, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if err := r.ensure(ctx, tx); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE admin_credit_pool
		SET available_credits = available_credits - $2,
		    total_consumed = total_consumed + $2,
		    updated_at = now()
		WHERE id = $1 AND available_credits >= $2
	`, poolID, amount)
	if err != nil {
		return fmt.Errorf("%w: consume credits", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrInsufficientAdminCredits
	}

	return nil
}

func (r *PoolRepository) UpdateLowThreshold(ctx context.Context, threshold int) (*Pool, error) {
	if threshold < 0 {
		return nil, ErrInvalidThreshold
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := r.ensure(ctx2, r.db); err != nil {
		return nil, err
	}

	var p Pool
	err := sqlx.GetContext(ctx2, r.db, &p, `
		UPDATE admin_credit_pool
		SET low_threshold = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, available_credits, total_added, total_consumed, low_threshold, last_topup_at, updated_at
	`, poolID, threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: update low threshold", ErrInternal)
	}

	return &p, nil
}
