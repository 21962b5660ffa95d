package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an account repository bound to the given
// session (plain connection or transaction).
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *domain.Account) error {
	m := Account{
		Number:    a.Number,
		Balance:   a.Balance,
		Currency:  a.Currency,
		Type:      string(a.Type),
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *accountRepository) Get(ctx context.Context, number string) (*domain.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).First(&m, "number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return accountToDomain(&m), nil
}

// GetForUpdate holds a row lock on the account until the enclosing
// transaction ends, blocking other writers at the store level in addition to
// the coordinator lock.
func (r *accountRepository) GetForUpdate(ctx context.Context, number string) (*domain.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return accountToDomain(&m), nil
}

// UpdateBalance writes the balance guarded by the version stamp. Zero rows
// affected means a concurrent writer bumped the version since the read.
func (r *accountRepository) UpdateBalance(
	ctx context.Context,
	number string,
	balance decimal.Decimal,
	expectedVersion int64,
) error {
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("number = ? AND version = ?", number, expectedVersion).
		Updates(map[string]any{
			"balance":    balance,
			"version":    expectedVersion + 1,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}
