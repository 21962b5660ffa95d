package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestUoW_DoCommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		accounts, err := txUow.AccountRepository()
		require.NoError(t, err)
		assert.NotNil(t, accounts)

		txs, err := txUow.TransactionRepository()
		require.NoError(t, err)
		assert.NotNil(t, txs)

		audits, err := txUow.AuditLogRepository()
		require.NoError(t, err)
		assert.NotNil(t, audits)

		return nil
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_DoRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(`SELECT .* FROM "accounts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), "NOSUCHACCT00")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateBalanceVersionConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	// A stale version matches no row.
	mock.ExpectExec(`UPDATE "accounts"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateBalance(
		context.Background(), "ACCT00000001", decimal.NewFromInt(100), 3)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateBalanceSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectExec(`UPDATE "accounts"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateBalance(
		context.Background(), "ACCT00000001", decimal.NewFromInt(100), 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_GetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)

	mock.ExpectQuery(`SELECT .* FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
