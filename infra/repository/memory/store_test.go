package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, number string, balance int64) {
	t.Helper()
	repo, err := s.AccountRepository()
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, repo.Create(context.Background(), &domain.Account{
		Number:    number,
		Balance:   decimal.NewFromInt(balance),
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func TestDo_RollsBackOnError(t *testing.T) {
	t.Parallel()

	s := NewStore()
	seed(t, s, "ACCT00000001", 100)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		require.NoError(t, err)
		if err := accounts.UpdateBalance(
			ctx, "ACCT00000001", decimal.NewFromInt(999), 0); err != nil {
			return err
		}
		txs, err := uow.TransactionRepository()
		require.NoError(t, err)
		if err := txs.Create(ctx, domain.NewTransaction(
			"ACCT00000001", domain.TransactionTypeDeposit,
			decimal.NewFromInt(10), "")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	accounts, err := s.AccountRepository()
	require.NoError(t, err)
	acct, err := accounts.Get(ctx, "ACCT00000001")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(100)),
		"a failed transaction must leave no partial writes")
	assert.Equal(t, int64(0), acct.Version)

	txs, err := s.TransactionRepository()
	require.NoError(t, err)
	list, err := txs.ListByAccount(ctx, "ACCT00000001")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateBalance(t *testing.T) {
	t.Parallel()

	s := NewStore()
	seed(t, s, "ACCT00000001", 100)
	ctx := context.Background()
	accounts, err := s.AccountRepository()
	require.NoError(t, err)

	t.Run("bumps the version", func(t *testing.T) {
		require.NoError(t, accounts.UpdateBalance(
			ctx, "ACCT00000001", decimal.NewFromInt(150), 0))
		acct, err := accounts.Get(ctx, "ACCT00000001")
		require.NoError(t, err)
		assert.Equal(t, int64(1), acct.Version)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		err := accounts.UpdateBalance(ctx, "ACCT00000001", decimal.NewFromInt(175), 0)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	})

	t.Run("forced conflicts fire regardless of version", func(t *testing.T) {
		s.ForceVersionConflicts(1)
		err := accounts.UpdateBalance(ctx, "ACCT00000001", decimal.NewFromInt(175), 1)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)

		require.NoError(t, accounts.UpdateBalance(
			ctx, "ACCT00000001", decimal.NewFromInt(175), 1))
	})
}

func TestListByAccount_NewestFirst(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()
	txs, err := s.TransactionRepository()
	require.NoError(t, err)

	first := domain.NewTransaction(
		"ACCT00000001", domain.TransactionTypeDeposit, decimal.NewFromInt(1), "first")
	second := domain.NewTransaction(
		"ACCT00000001", domain.TransactionTypeDeposit, decimal.NewFromInt(2), "second")
	other := domain.NewTransaction(
		"ACCT00000002", domain.TransactionTypeDeposit, decimal.NewFromInt(3), "other")
	require.NoError(t, txs.Create(ctx, first))
	require.NoError(t, txs.Create(ctx, second))
	require.NoError(t, txs.Create(ctx, other))

	list, err := txs.ListByAccount(ctx, "ACCT00000001")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestAuditLogQueries(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()
	audits, err := s.AuditLogRepository()
	require.NoError(t, err)

	now := time.Now()
	for i, ts := range []time.Time{
		now.Add(-2 * time.Hour), now.Add(-time.Hour), now,
	} {
		require.NoError(t, audits.Create(ctx, &domain.AuditLogEntry{
			Operation:     "DEPOSIT",
			AccountNumber: "ACCT00000001",
			Success:       i != 1, // middle entry failed
			Timestamp:     ts,
		}))
	}

	inWindow, err := audits.ListInWindow(
		ctx, "ACCT00000001", now.Add(-90*time.Minute), now)
	require.NoError(t, err)
	assert.Len(t, inWindow, 2)

	successful, err := audits.ListSuccessfulBefore(ctx, "ACCT00000001", now)
	require.NoError(t, err)
	assert.Len(t, successful, 2)

	recent, err := audits.ListRecent(ctx, "ACCT00000001", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, recent[0].Timestamp, now)
}
