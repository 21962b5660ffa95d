package repository

import (
	"context"

	"github.com/amirasaad/banking/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides the transaction boundary and repository access in one
// abstraction: every repository handed out inside Do is bound to the same
// database transaction, so a failure anywhere rolls back every write.
type UoW struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUoW creates a UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs fn in a transaction boundary, providing a UoW whose repositories
// share the transaction session.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx})
	})
}

// session returns the transaction when inside Do, else the plain connection.
func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// AccountRepository implements repository.UnitOfWork.
func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return NewAccountRepository(u.session()), nil
}

// TransactionRepository implements repository.UnitOfWork.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return NewTransactionRepository(u.session()), nil
}

// AuditLogRepository implements repository.UnitOfWork.
func (u *UoW) AuditLogRepository() (repository.AuditLogRepository, error) {
	return NewAuditLogRepository(u.session()), nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
