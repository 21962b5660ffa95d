package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/banking/infra/eventbus"
	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/eventbus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterInvalidation_EvictsOnCompletionEvents(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := infraeventbus.NewMemoryBus(logger)
	cache := NewMemoryAccountCache(time.Minute)
	RegisterInvalidation(bus, cache, logger)

	ctx := context.Background()
	acct := &domain.Account{Number: "ABC123DEF456", Balance: decimal.NewFromInt(500)}
	cache.Set(ctx, acct)

	_, ok := cache.Get(ctx, acct.Number)
	require.True(t, ok)

	err := bus.Publish(ctx, eventbus.TransactionCompleted{
		EventType:     eventbus.EventDepositCompleted,
		AccountNumber: acct.Number,
		Amount:        decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, ok = cache.Get(ctx, acct.Number)
	assert.False(t, ok, "completion event must evict the cached account")
}

func TestRegisterInvalidation_TransferEvictsBothSides(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := infraeventbus.NewMemoryBus(logger)
	cache := NewMemoryAccountCache(time.Minute)
	RegisterInvalidation(bus, cache, logger)

	ctx := context.Background()
	src := &domain.Account{Number: "AAAA11112222", Balance: decimal.NewFromInt(500)}
	dst := &domain.Account{Number: "BBBB33334444", Balance: decimal.NewFromInt(200)}
	cache.Set(ctx, src)
	cache.Set(ctx, dst)

	require.NoError(t, bus.Publish(ctx, eventbus.TransactionCompleted{
		EventType:     eventbus.EventTransferSent,
		AccountNumber: src.Number,
	}))
	require.NoError(t, bus.Publish(ctx, eventbus.TransactionCompleted{
		EventType:     eventbus.EventTransferReceived,
		AccountNumber: dst.Number,
	}))

	_, ok := cache.Get(ctx, src.Number)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, dst.Number)
	assert.False(t, ok)
}

func TestMemoryAccountCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	cache := NewMemoryAccountCache(10 * time.Millisecond)
	ctx := context.Background()
	cache.Set(ctx, &domain.Account{Number: "ABC123DEF456"})

	_, ok := cache.Get(ctx, "ABC123DEF456")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok = cache.Get(ctx, "ABC123DEF456")
	assert.False(t, ok)
}
