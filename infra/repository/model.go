// Package repository contains the gorm-backed implementation of the ledger
// store contracts, plus the unit-of-work binding repositories to one database
// transaction.
package repository

import (
	"time"

	"github.com/amirasaad/banking/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the database record for an account. Version is the optimistic
// stamp guarding every balance write.
type Account struct {
	ID        uint            `gorm:"primaryKey"`
	Number    string          `gorm:"uniqueIndex;size:32;not null"`
	Balance   decimal.Decimal `gorm:"type:numeric(19,2);not null"`
	Currency  string          `gorm:"type:varchar(3);not null;default:'USD'"`
	Type      string          `gorm:"type:varchar(16);not null"`
	Version   int64           `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string { return "accounts" }

// Transaction is the database record for a committed balance movement. Rows
// are insert-only.
type Transaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountNumber string          `gorm:"index;size:32;not null"`
	Type          string          `gorm:"type:varchar(16);not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(19,2);not null"`
	Description   string
	Status        string `gorm:"type:varchar(16);not null"`
	CreatedAt     time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string { return "transactions" }

// AuditLog is the database record for one audit trail entry. Rows are
// insert-only; there is no update path.
type AuditLog struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Operation       string `gorm:"size:32;not null"`
	AccountNumber   string `gorm:"index:idx_audit_account_ts;size:32"`
	ToAccountNumber string `gorm:"size:32"`
	UserID          string `gorm:"size:64"`
	TransactionID   *uuid.UUID       `gorm:"type:uuid"`
	Amount          *decimal.Decimal `gorm:"type:numeric(19,2)"`
	BalanceBefore   *decimal.Decimal `gorm:"type:numeric(19,2)"`
	BalanceAfter    *decimal.Decimal `gorm:"type:numeric(19,2)"`
	Success         bool
	ErrorMessage    string
	Details         string
	SessionID       string    `gorm:"size:64"`
	IPAddress       string    `gorm:"size:45"`
	Timestamp       time.Time `gorm:"index:idx_audit_account_ts;not null"`
}

// TableName specifies the table name for the AuditLog model.
func (AuditLog) TableName() string { return "audit_logs" }

func accountToDomain(m *Account) *domain.Account {
	return &domain.Account{
		Number:    m.Number,
		Balance:   m.Balance,
		Currency:  m.Currency,
		Type:      domain.AccountType(m.Type),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Version:   m.Version,
	}
}

func transactionToDomain(m *Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:            m.ID,
		AccountNumber: m.AccountNumber,
		Type:          domain.TransactionType(m.Type),
		Amount:        m.Amount,
		Description:   m.Description,
		Status:        domain.TransactionStatus(m.Status),
		CreatedAt:     m.CreatedAt,
	}
}

func auditLogToDomain(m *AuditLog) *domain.AuditLogEntry {
	return &domain.AuditLogEntry{
		ID:              m.ID,
		Operation:       m.Operation,
		AccountNumber:   m.AccountNumber,
		ToAccountNumber: m.ToAccountNumber,
		UserID:          m.UserID,
		TransactionID:   m.TransactionID,
		Amount:          m.Amount,
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		Success:         m.Success,
		ErrorMessage:    m.ErrorMessage,
		Details:         m.Details,
		SessionID:       m.SessionID,
		IPAddress:       m.IPAddress,
		Timestamp:       m.Timestamp,
	}
}
