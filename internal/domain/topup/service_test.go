package topup

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medora/medora-api/internal/domain/creditpool"
	"github.com/medora/medora-api/internal/domain/wallet"
)

var requestTestColumns = []string{
	"id", "owner_id", "owner_type", "credits", "note", "admin_note", "status",
	"resolved_by", "resolved_at", "created_at", "updated_at",
}

var poolTestColumns = []string{"id", "available_credits", "total_added", "total_consumed", "low_threshold", "last_topup_at", "updated_at"}

var walletTestColumns = []string{
	"id", "owner_id", "owner_type", "balance", "total_purchased", "total_sent",
	"low_balance_notified_at", "is_active", "last_topup_at", "created_at", "updated_at",
}

func setupResolveMock(t *testing.T) (*Service, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")

	repo := NewRepository(sqlxDB)
	poolRepo := creditpool.NewRepository(sqlxDB)
	poolSvc := creditpool.NewService(poolRepo, nil)
	walletRepo := wallet.NewRepository(sqlxDB)

	svc := NewService(repo, sqlxDB, poolRepo, poolSvc, walletRepo)

	closer := func() { sqlxDB.Close() }
	return svc, mock, closer
}

func requestRow(id, ownerID uuid.UUID, credits int, status Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(requestTestColumns).
		AddRow(id, ownerID, "doctor", credits, "", "", string(status), nil, nil, now, now)
}

func TestResolveApproved(t *testing.T) {
	svc, mock, close := setupResolveMock(t)
	defer close()

	requestID := uuid.New()
	ownerID := uuid.New()
	adminID := uuid.New()
	walletID := uuid.New()
	now := time.Now()

	// existence check
	mock.ExpectQuery("SELECT id, owner_id").
		WithArgs(requestID).
		WillReturnRows(requestRow(requestID, ownerID, 100, StatusPending))

	mock.ExpectBegin()

	// guarded status flip
	mock.ExpectQuery("UPDATE topup_requests").
		WithArgs(requestID, "approved", "ok", adminID).
		WillReturnRows(requestRow(requestID, ownerID, 100, StatusApproved))

	// pool consumption
	mock.ExpectExec("INSERT INTO admin_credit_pool").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE admin_credit_pool").
		WithArgs(1, 100).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// wallet credit plus ledger entry
	mock.ExpectExec("INSERT INTO owner_wallets").
		WithArgs(ownerID, "doctor").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE owner_wallets").
		WithArgs(ownerID, "doctor", 100).
		WillReturnRows(sqlmock.NewRows(walletTestColumns).
			AddRow(walletID, ownerID, "doctor", 100, 100, 0, nil, true, now, now, now))
	mock.ExpectExec("INSERT INTO wallet_ledger").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	// post-commit pool low check
	mock.ExpectExec("INSERT INTO admin_credit_pool").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, available_credits").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(poolTestColumns).AddRow(1, 400, 1000, 600, 100, nil, now))

	req, err := svc.Resolve(context.Background(), requestID, StatusApproved, "ok", adminID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, req.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveRejectedSkipsPoolAndWallet(t *testing.T) {
	svc, mock, close := setupResolveMock(t)
	defer close()

	requestID := uuid.New()
	ownerID := uuid.New()
	adminID := uuid.New()

	mock.ExpectQuery("SELECT id, owner_id").
		WithArgs(requestID).
		WillReturnRows(requestRow(requestID, ownerID, 100, StatusPending))

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE topup_requests").
		WithArgs(requestID, "rejected", "no budget", adminID).
		WillReturnRows(requestRow(requestID, ownerID, 100, StatusRejected))
	mock.ExpectCommit()

	req, err := svc.Resolve(context.Background(), requestID, StatusRejected, "no budget", adminID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, req.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveRollsBackOnInsufficientPool(t *testing.T) {
	svc, mock, close := setupResolveMock(t)
	defer close()

	requestID := uuid.New()
	ownerID := uuid.New()
	adminID := uuid.New()

	mock.ExpectQuery("SELECT id, owner_id").
		WithArgs(requestID).
		WillReturnRows(requestRow(requestID, ownerID, 5000, StatusPending))

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE topup_requests").
		WithArgs(requestID, "approved", "", adminID).
		WillReturnRows(requestRow(requestID, ownerID, 5000, StatusApproved))
	mock.ExpectExec("INSERT INTO admin_credit_pool").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE admin_credit_pool").
		WithArgs(1, 5000).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Resolve(context.Background(), requestID, StatusApproved, "", adminID)
	assert.ErrorIs(t, err, creditpool.ErrInsufficientAdminCredits)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveRollsBackOnWalletCreditFailure(t *testing.T) {
	svc, mock, close := setupResolveMock(t)
	defer close()

	requestID := uuid.New()
	ownerID := uuid.New()
	adminID := uuid.New()

	mock.ExpectQuery("SELECT id, owner_id").
		WithArgs(requestID).
		WillReturnRows(requestRow(requestID, ownerID, 100, StatusPending))

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE topup_requests").
		WithArgs(requestID, "approved", "", adminID).
		WillReturnRows(requestRow(requestID, ownerID, 100, StatusApproved))

	// pool consumption succeeds
	mock.ExpectExec("INSERT INTO admin_credit_pool").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE admin_credit_pool").
		WithArgs(1, 100).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// wallet credit fails, rolling the consumed credits back with it
	mock.ExpectExec("INSERT INTO owner_wallets").
		WithArgs(ownerID, "doctor").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE owner_wallets").
		WithArgs(ownerID, "doctor", 100).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.Resolve(context.Background(), requestID, StatusApproved, "", adminID)
	assert.ErrorIs(t, err, wallet.ErrInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveAlreadyProcessed(t *testing.T) {
	svc, mock, close := setupResolveMock(t)
	defer close()

	requestID := uuid.New()
	ownerID := uuid.New()
	adminID := uuid.New()

	mock.ExpectQuery("SELECT id, owner_id").
		WithArgs(requestID).
		WillReturnRows(requestRow(requestID, ownerID, 100, StatusApproved))

	_, err := svc.Resolve(context.Background(), requestID, StatusApproved, "", adminID)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveNotFound(t *testing.T) {
	svc, mock, close := setupResolveMock(t)
	defer close()

	requestID := uuid.New()
	adminID := uuid.New()

	mock.ExpectQuery("SELECT id, owner_id").
		WithArgs(requestID).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Resolve(context.Background(), requestID, StatusApproved, "", adminID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsUnmappedRole(t *testing.T) {
	svc, _, close := setupResolveMock(t)
	defer close()

	_, err := svc.Create(context.Background(), uuid.New(), "patient", 100, "")
	assert.ErrorIs(t, err, wallet.ErrUnmappedRole)
}
