package cache

import (
	"context"
	"log/slog"

	"github.com/amirasaad/banking/pkg/account"
	"github.com/amirasaad/banking/pkg/eventbus"
)

// RegisterInvalidation subscribes an eviction handler for every transaction
// completion event so cached balances never outlive a committed mutation.
// Eviction is best-effort: the cache TTL backstops a failed delete.
func RegisterInvalidation(bus eventbus.Bus, cache account.Cache, logger *slog.Logger) {
	handler := func(ctx context.Context, e eventbus.Event) {
		evt, ok := e.(eventbus.TransactionCompleted)
		if !ok {
			return
		}
		cache.Evict(ctx, evt.AccountNumber)
		logger.Debug("evicted cached account", "account", evt.AccountNumber, "event", evt.EventType)
	}

	for _, eventType := range []string{
		eventbus.EventDepositCompleted,
		eventbus.EventWithdrawCompleted,
		eventbus.EventTransferSent,
		eventbus.EventTransferReceived,
	} {
		bus.Subscribe(eventType, handler)
	}
}
