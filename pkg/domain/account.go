// Package domain holds the core banking entities and the invariants they
// enforce: accounts whose balances never go negative, immutable transaction
// records, and the append-only audit trail reconciliation relies on.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
)

// Account represents a customer account.
//
// Invariants:
//   - Balance is never negative at any observable time.
//   - Version increments exactly once per committed mutation; all balance
//     changes go through the transaction engine's optimistic update path.
//   - Accounts are never deleted.
type Account struct {
	Number    string
	Balance   decimal.Decimal
	Currency  string
	Type      AccountType
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

// HasSufficientFunds reports whether the account can cover amount without
// going negative.
func (a *Account) HasSufficientFunds(amount decimal.Decimal) bool {
	return a.Balance.Cmp(amount) >= 0
}
