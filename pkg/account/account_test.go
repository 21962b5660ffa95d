package account_test

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/amirasaad/banking/infra/cache"
	"github.com/amirasaad/banking/infra/repository/memory"
	"github.com/amirasaad/banking/pkg/account"
	"github.com/amirasaad/banking/pkg/audit"
	"github.com/amirasaad/banking/pkg/config"
	"github.com/amirasaad/banking/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, withCache bool) (*account.Service, *memory.Store, account.Cache) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Banking{AuditEnabled: true, AccountNumberLength: 12}
	store := memory.NewStore()
	recorder := audit.NewRecorder(store, cfg, logger)
	var c account.Cache
	if withCache {
		c = cache.NewMemoryAccountCache(time.Minute)
	}
	return account.NewService(store, c, recorder, cfg, logger), store, c
}

func TestGenerateAccountNumber(t *testing.T) {
	t.Parallel()

	format := regexp.MustCompile(`^[0-9A-F]{12}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		number := account.GenerateAccountNumber(12)
		assert.Regexp(t, format, number)
		assert.False(t, seen[number], "account numbers must not repeat")
		seen[number] = true
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persists and audits the new account", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newService(t, false)

		acct, err := svc.Create(ctx, "USD", domain.AccountTypeChecking, decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.Len(t, acct.Number, 12)
		assert.True(t, acct.Balance.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, int64(0), acct.Version)

		audits, err := store.AuditLogRepository()
		require.NoError(t, err)
		entries, err := audits.ListRecent(ctx, acct.Number, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "CREATE_ACCOUNT", entries[0].Operation)
		assert.True(t, entries[0].Success)
	})

	t.Run("rejects negative opening balance", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t, false)

		_, err := svc.Create(ctx, "USD", domain.AccountTypeSavings, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, domain.ErrAmountNotPositive)
	})
}

func TestGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reads through the cache", func(t *testing.T) {
		t.Parallel()
		svc, store, c := newService(t, true)

		acct, err := svc.Create(ctx, "USD", domain.AccountTypeChecking, decimal.NewFromInt(100))
		require.NoError(t, err)

		got, err := svc.Get(ctx, acct.Number)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))

		// Mutate the store behind the cache; the stale snapshot serves
		// until eviction.
		accounts, err := store.AccountRepository()
		require.NoError(t, err)
		require.NoError(t, accounts.UpdateBalance(
			ctx, acct.Number, decimal.NewFromInt(777), 0))

		got, err = svc.Get(ctx, acct.Number)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))

		c.Evict(ctx, acct.Number)

		got, err = svc.Get(ctx, acct.Number)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(decimal.NewFromInt(777)))
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t, false)

		_, err := svc.Get(ctx, "NOSUCHACCT00")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestBalance(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, false)
	ctx := context.Background()

	acct, err := svc.Create(ctx, "USD", domain.AccountTypeChecking, decimal.NewFromInt(42))
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, acct.Number)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(42)))
}
