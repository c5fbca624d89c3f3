package creditpool

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var poolColumns = []string{"id", "available_credits", "total_added", "total_consumed", "low_threshold", "last_topup_at", "updated_at"}

func setupPoolMock(t *testing.T) (*PoolRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func TestGetOrCreatePool(t *testing.T) {
	repo, mock, close := setupPoolMock(t)
	defer close()

	now := time.Now()

	mock.ExpectExec("INSERT INTO admin_credit_pool").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, available_credits").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(poolColumns).AddRow(1, 500, 1000, 500, 100, nil, now))

	p, err := repo.GetOrCreate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 500, p.AvailableCredits)
	assert.Equal(t, 1000, p.TotalAdded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCredits(t *testing.T) {
	repo, mock, close := setupPoolMock(t)
	defer close()

	now := time.Now()

	mock.ExpectExec("INSERT INTO admin_credit_pool").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE admin_credit_pool").
		WithArgs(1, 200).
		WillReturnRows(sqlmock.NewRows(poolColumns).AddRow(1, 700, 1200, 500, 100, now, now))

	p, err := repo.AddCredits(context.Background(), 200)
	require.NoError(t, err)
	assert.Equal(t, 700, p.AvailableCredits)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCreditsRejectsNonPositiveAmount(t *testing.T) {
	repo, _, close := setupPoolMock(t)
	defer close()

	_, err := repo.AddCredits(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = repo.AddCredits(context.Background(), -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestConsumeCredits(t *testing.T) {
	repo, mock, close := setupPoolMock(t)
	defer close()

	now := time.Now()

	mock.ExpectExec("INSERT INTO admin_credit_pool").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE admin_credit_pool").
		WithArgs(1, 50).
		WillReturnRows(sqlmock.NewRows(poolColumns).AddRow(1, 450, 1000, 550, 100, nil, now))

	p, err := repo.ConsumeCredits(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 450, p.AvailableCredits)
	assert.Equal(t, 550, p.TotalConsumed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeCreditsInsufficient(t *testing.T) {
	repo, mock, close := setupPoolMock(t)
	defer close()

	mock.ExpectExec("INSERT INTO admin_credit_pool").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE admin_credit_pool").
		WithArgs(1, 9999).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ConsumeCredits(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrInsufficientAdminCredits)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeTxInsufficient(t *testing.T) {
	repo, mock, close := setupPoolMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO admin_credit_pool").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE admin_credit_pool").
		WithArgs(1, 100).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := repo.db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.ConsumeTx(context.Background(), tx, 100)
	assert.ErrorIs(t, err, ErrInsufficientAdminCredits)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLowThresholdRejectsNegative(t *testing.T) {
	repo, _, close := setupPoolMock(t)
	defer close()

	_, err := repo.UpdateLowThreshold(context.Background(), -1)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}
