package wallet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

const walletColumns = `id, owner_id, owner_type, balance, total_purchased, total_sent,
	low_balance_notified_at, is_active, last_topup_at, created_at, updated_at`

// Repository provides wallet balance and ledger operations backed by
// Postgres. Every balance mutation and its ledger entry share one
// transaction; check-then-act is a single conditional UPDATE, so
// correctness does not depend on in-process locks.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ensure lazily creates the wallet row. The unique (owner_id, owner_type)
// constraint makes concurrent first access converge on one row.
func (r *Repository) ensure(ctx context.Context, q sqlx.ExtContext, ownerID uuid.UUID, ownerType OwnerType) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO owner_wallets (owner_id, owner_type)
		VALUES ($1, $2)
		ON CONFLICT (owner_id, owner_type) DO NOTHING
	`, ownerID, string(ownerType))
	if err != nil {
		return fmt.Errorf("%w: ensure wallet", ErrInternal)
	}
	return nil
}

// GetOrCreate returns the owner's wallet, creating it lazily.
func (r *Repository) GetOrCreate(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType) (*Wallet, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := r.ensure(ctx2, r.db, ownerID, ownerType); err != nil {
		return nil, err
	}

	var w Wallet
	err := r.db.GetContext(ctx2, &w, `
		SELECT `+walletColumns+`
		FROM owner_wallets
		WHERE owner_id = $1 AND owner_type = $2
	`, ownerID, string(ownerType))
	if err != nil {
		return nil, fmt.Errorf("%w: get wallet", ErrInternal)
	}

	return &w, nil
}

// Credit adds credits to a wallet and appends the matching ledger entry in
// one transaction.
func (r *Repository) Credit(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, amount int, reason string, meta map[string]interface{}) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	w, err := r.CreditTx(ctx2, tx, ownerID, ownerType, amount, reason, meta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return w, nil
}

// CreditTx credits a wallet within an external transaction. Used when the
// credit must be atomic with another operation (top-up approval consumes
// the admin pool in the same transaction). Does NOT commit or rollback —
// the caller owns the transaction.
func (r *Repository) CreditTx(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID, ownerType OwnerType, amount int, reason string, meta map[string]interface{}) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if err := r.ensure(ctx, tx, ownerID, ownerType); err != nil {
		return nil, err
	}

	var w Wallet
	err := tx.GetContext(ctx, &w, `
		UPDATE owner_wallets
		SET balance = balance + $3,
		    total_purchased = total_purchased + $3,
		    last_topup_at = now(),
		    updated_at = now()
		WHERE owner_id = $1 AND owner_type = $2
		RETURNING `+walletColumns+`
	`, ownerID, string(ownerType), amount)
	if err != nil {
		return nil, fmt.Errorf("%w: credit wallet", ErrInternal)
	}

	if err := r.insertLedger(ctx, tx, &w, DirectionCredit, amount, reason, meta); err != nil {
		return nil, err
	}

	return &w, nil
}

// Debit removes credits from a wallet, failing closed when the balance
// cannot fund the amount. The `balance >= amount` guard lives in the WHERE
// clause: two concurrent debits of 3 against a balance of 5 resolve to one
// success and one ErrInsufficientBalance, never a negative balance.
//
// When the resulting balance is at or under lowThreshold and the 24h
// debounce allows it, low_balance_notified_at is stamped in the same
// transaction and the second return value is true so the caller can emit
// the notification after commit.
func (r *Repository) Debit(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, amount int, reason string, meta map[string]interface{}, lowThreshold int, now time.Time) (*Wallet, bool, error) {
	if amount <= 0 {
		return nil, false, ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if err := r.ensure(ctx2, tx, ownerID, ownerType); err != nil {
		return nil, false, err
	}

	var w Wallet
	err = tx.GetContext(ctx2, &w, `
		UPDATE owner_wallets
		SET balance = balance - $3,
		    total_sent = total_sent + $3,
		    updated_at = now()
		WHERE owner_id = $1 AND owner_type = $2 AND balance >= $3
		RETURNING `+walletColumns+`
	`, ownerID, string(ownerType), amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrInsufficientBalance
		}
		return nil, false, fmt.Errorf("%w: debit wallet", ErrInternal)
	}

	if err := r.insertLedger(ctx2, tx, &w, DirectionDebit, amount, reason, meta); err != nil {
		return nil, false, err
	}

	notify := false
	if w.Balance <= lowThreshold && ShouldNotifyLowBalance(w.LowBalanceNotifiedAt, now) {
		if _, err := tx.ExecContext(ctx2, `
			UPDATE owner_wallets
			SET low_balance_notified_at = $2
			WHERE id = $1
		`, w.ID, now); err != nil {
			return nil, false, fmt.Errorf("%w: stamp low balance notification", ErrInternal)
		}
		notifiedAt := now
		w.LowBalanceNotifiedAt = &notifiedAt
		notify = true
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return &w, notify, nil
}

// ListLedger returns the wallet's ledger entries, newest first.
func (r *Repository) ListLedger(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, limit, offset int) ([]LedgerEntry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	entries := make([]LedgerEntry, 0)
	err := r.db.SelectContext(ctx2, &entries, `
		SELECT id, wallet_id, owner_id, owner_type, direction, amount, reason, meta, created_at
		FROM wallet_ledger
		WHERE owner_id = $1 AND owner_type = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, ownerID, string(ownerType), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list ledger", ErrInternal)
	}

	return entries, nil
}

func (r *Repository) insertLedger(ctx context.Context, tx *sqlx.Tx, w *Wallet, direction Direction, amount int, reason string, meta map[string]interface{}) error {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("%w: encode ledger meta", ErrInternal)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger (id, wallet_id, owner_id, owner_type, direction, amount, reason, meta)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
	`, w.ID, w.OwnerID, string(w.OwnerType), string(direction), amount, reason, string(metaJSON))
	if err != nil {
		return fmt.Errorf("%w: insert ledger entry", ErrInternal)
	}

	return nil
}
