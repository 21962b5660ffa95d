// Package repository defines the persistence contracts of the ledger store:
// aggregate repositories plus the UnitOfWork transaction boundary that binds
// them to a single store transaction.
package repository

import (
	"context"
	"time"

	"github.com/amirasaad/banking/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository persists account records.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error

	// Get returns the account or domain.ErrAccountNotFound.
	Get(ctx context.Context, number string) (*domain.Account, error)

	// GetForUpdate reads the account with row-level exclusivity: other writers
	// block on the row until the enclosing store transaction ends. Only valid
	// inside a UnitOfWork.Do boundary.
	GetForUpdate(ctx context.Context, number string) (*domain.Account, error)

	// UpdateBalance writes the new balance guarded by the optimistic version
	// stamp read earlier. It returns domain.ErrVersionConflict when a
	// concurrent writer bumped the version in between; on success the stored
	// version is expectedVersion+1.
	UpdateBalance(
		ctx context.Context,
		number string,
		balance decimal.Decimal,
		expectedVersion int64,
	) error
}

// TransactionRepository persists immutable transaction records.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error

	// Get returns the transaction or domain.ErrTransactionNotFound.
	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)

	// ListByAccount returns the account's transactions ordered newest-first.
	ListByAccount(ctx context.Context, accountNumber string) ([]domain.Transaction, error)
}

// AuditLogRepository appends and queries the audit trail. Entries are
// append-only: there is no update or delete.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLogEntry) error

	// Get returns the entry or domain.ErrAuditLogNotFound.
	Get(ctx context.Context, id int64) (*domain.AuditLogEntry, error)

	// ListSuccessfulInWindow returns successful entries for the account within
	// [from, to], ordered oldest-first.
	ListSuccessfulInWindow(
		ctx context.Context,
		accountNumber string,
		from, to time.Time,
	) ([]domain.AuditLogEntry, error)

	// ListSuccessfulBefore returns successful entries for the account up to
	// asOf, ordered oldest-first.
	ListSuccessfulBefore(
		ctx context.Context,
		accountNumber string,
		asOf time.Time,
	) ([]domain.AuditLogEntry, error)

	// ListInWindow returns all entries for the account within [from, to],
	// successes and failures, ordered oldest-first.
	ListInWindow(
		ctx context.Context,
		accountNumber string,
		from, to time.Time,
	) ([]domain.AuditLogEntry, error)

	// ListRecent returns up to limit entries for the account, newest-first.
	ListRecent(ctx context.Context, accountNumber string, limit int) ([]domain.AuditLogEntry, error)
}

// UnitOfWork runs work inside a single store transaction and hands out
// repositories bound to that transaction, so an error anywhere rolls back
// every write made within the boundary.
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an error the
	// transaction is rolled back and the error is returned unchanged.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	AccountRepository() (AccountRepository, error)
	TransactionRepository() (TransactionRepository, error)
	AuditLogRepository() (AuditLogRepository, error)
}
