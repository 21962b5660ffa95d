// Package eventbus defines the post-commit notification contract. Delivery is
// asynchronous, at-most-once and best-effort: a lost notification never
// invalidates a committed business operation.
package eventbus

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is implemented by all published events.
type Event interface {
	Type() string
}

// HandlerFunc consumes a published event. Handler errors are logged by the
// bus, never propagated to the publisher.
type HandlerFunc func(ctx context.Context, event Event)

// Bus fans out events to subscribed handlers.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType string, handler HandlerFunc)
}

// Completion event types. A transfer publishes one event per affected account
// so downstream cache invalidation can distinguish sent from received.
const (
	EventDepositCompleted  = "DEPOSIT"
	EventWithdrawCompleted = "WITHDRAWAL"
	EventTransferSent      = "TRANSFER"
	EventTransferReceived  = "TRANSFER_RECEIVED"
)

// TransactionCompleted is published after the store transaction for a
// deposit, withdrawal or transfer has committed.
type TransactionCompleted struct {
	EventType     string
	AccountNumber string
	Amount        decimal.Decimal
	TransactionID uuid.UUID
}

// Type implements Event.
func (e TransactionCompleted) Type() string { return e.EventType }
