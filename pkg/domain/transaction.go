package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType identifies the kind of balance movement.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
)

// TransactionStatus is the terminal outcome of a transaction. There are no
// partial states: a failure rolls back before any record is written.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is an immutable record of a committed balance movement, owned by
// the account it debits or credits. A transfer persists a single record owned
// by the source account; the destination is referenced in the description.
type Transaction struct {
	ID            uuid.UUID
	AccountNumber string
	Type          TransactionType
	Amount        decimal.Decimal
	Description   string
	Status        TransactionStatus
	CreatedAt     time.Time
}

// NewTransaction builds a COMPLETED transaction record for the given account.
func NewTransaction(
	accountNumber string,
	txType TransactionType,
	amount decimal.Decimal,
	description string,
) *Transaction {
	return &Transaction{
		ID:            uuid.New(),
		AccountNumber: accountNumber,
		Type:          txType,
		Amount:        amount,
		Description:   description,
		Status:        TransactionStatusCompleted,
		CreatedAt:     time.Now(),
	}
}
