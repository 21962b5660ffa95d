package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/repository"
	"gorm.io/gorm"
)

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates an audit log repository bound to the given
// session.
func NewAuditLogRepository(db *gorm.DB) repository.AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, e *domain.AuditLogEntry) error {
	m := AuditLog{
		Operation:       e.Operation,
		AccountNumber:   e.AccountNumber,
		ToAccountNumber: e.ToAccountNumber,
		UserID:          e.UserID,
		TransactionID:   e.TransactionID,
		Amount:          e.Amount,
		BalanceBefore:   e.BalanceBefore,
		BalanceAfter:    e.BalanceAfter,
		Success:         e.Success,
		ErrorMessage:    e.ErrorMessage,
		Details:         e.Details,
		SessionID:       e.SessionID,
		IPAddress:       e.IPAddress,
		Timestamp:       e.Timestamp,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	e.ID = m.ID
	return nil
}

func (r *auditLogRepository) Get(ctx context.Context, id int64) (*domain.AuditLogEntry, error) {
	var m AuditLog
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAuditLogNotFound
	}
	if err != nil {
		return nil, err
	}
	return auditLogToDomain(&m), nil
}

func (r *auditLogRepository) ListSuccessfulInWindow(
	ctx context.Context,
	accountNumber string,
	from, to time.Time,
) ([]domain.AuditLogEntry, error) {
	return r.list(ctx, r.db.
		Where("account_number = ? AND success = ? AND timestamp BETWEEN ? AND ?",
			accountNumber, true, from, to).
		Order("timestamp ASC"))
}

func (r *auditLogRepository) ListSuccessfulBefore(
	ctx context.Context,
	accountNumber string,
	asOf time.Time,
) ([]domain.AuditLogEntry, error) {
	return r.list(ctx, r.db.
		Where("account_number = ? AND success = ? AND timestamp <= ?",
			accountNumber, true, asOf).
		Order("timestamp ASC"))
}

func (r *auditLogRepository) ListInWindow(
	ctx context.Context,
	accountNumber string,
	from, to time.Time,
) ([]domain.AuditLogEntry, error) {
	return r.list(ctx, r.db.
		Where("account_number = ? AND timestamp BETWEEN ? AND ?", accountNumber, from, to).
		Order("timestamp ASC"))
}

func (r *auditLogRepository) ListRecent(
	ctx context.Context,
	accountNumber string,
	limit int,
) ([]domain.AuditLogEntry, error) {
	return r.list(ctx, r.db.
		Where("account_number = ?", accountNumber).
		Order("timestamp DESC").
		Limit(limit))
}

func (r *auditLogRepository) list(ctx context.Context, q *gorm.DB) ([]domain.AuditLogEntry, error) {
	var ms []AuditLog
	if err := q.WithContext(ctx).Find(&ms).Error; err != nil {
		return nil, err
	}
	entries := make([]domain.AuditLogEntry, 0, len(ms))
	for i := range ms {
		entries = append(entries, *auditLogToDomain(&ms[i]))
	}
	return entries, nil
}
