package repository

import (
	"context"
	"errors"

	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository bound to the
// given session.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	m := Transaction{
		ID:            t.ID,
		AccountNumber: t.AccountNumber,
		Type:          string(t.Type),
		Amount:        t.Amount,
		Description:   t.Description,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var m Transaction
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return transactionToDomain(&m), nil
}

func (r *transactionRepository) ListByAccount(
	ctx context.Context,
	accountNumber string,
) ([]domain.Transaction, error) {
	var ms []Transaction
	err := r.db.WithContext(ctx).
		Where("account_number = ?", accountNumber).
		Order("created_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(ms))
	for i := range ms {
		txs = append(txs, *transactionToDomain(&ms[i]))
	}
	return txs, nil
}
