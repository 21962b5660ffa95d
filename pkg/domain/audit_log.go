package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditUserID is recorded on entries written by the engine itself rather than
// on behalf of a specific user.
const AuditUserID = "system"

// AuditLogEntry is an append-only record of one engine invocation, written for
// successes and failures alike. It deliberately references accounts by number
// only, so the trail survives even when the account row cannot be loaded.
// Entries are never mutated after insertion.
type AuditLogEntry struct {
	ID              int64
	Operation       string
	AccountNumber   string
	ToAccountNumber string
	UserID          string
	TransactionID   *uuid.UUID
	Amount          *decimal.Decimal
	BalanceBefore   *decimal.Decimal
	BalanceAfter    *decimal.Decimal
	Success         bool
	ErrorMessage    string
	Details         string
	SessionID       string
	IPAddress       string
	Timestamp       time.Time
}
