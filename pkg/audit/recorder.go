// Package audit appends immutable operation records independent of the
// primary transaction outcome: every engine invocation leaves exactly one
// entry, success or failure.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/banking/pkg/config"
	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/repository"
	"github.com/shopspring/decimal"
)

// Recorder writes audit log entries. Success entries are recorded through the
// caller's repository so they share the business operation's store
// transaction; audit completeness is an invariant there, so a failed insert
// rolls the whole operation back. Failure entries are recorded in their own
// transaction after the business transaction has already rolled back.
type Recorder struct {
	uow     repository.UnitOfWork
	enabled bool
	logger  *slog.Logger
}

// NewRecorder creates a Recorder. When auditing is disabled in config every
// method becomes a no-op.
func NewRecorder(uow repository.UnitOfWork, cfg *config.Banking, logger *slog.Logger) *Recorder {
	return &Recorder{uow: uow, enabled: cfg.AuditEnabled, logger: logger}
}

// Record appends entry through repo, which must be bound to the caller's
// transaction. Missing bookkeeping fields are filled in.
func (r *Recorder) Record(
	ctx context.Context,
	repo repository.AuditLogRepository,
	entry *domain.AuditLogEntry,
) error {
	if !r.enabled {
		return nil
	}
	stamp(entry)
	return repo.Create(ctx, entry)
}

// RecordFailure appends a failure entry in its own store transaction. It is
// called after the business transaction rolled back, so the entry survives.
// A failure to write the entry is logged, not propagated: the caller's
// original error must reach the caller unchanged.
func (r *Recorder) RecordFailure(
	ctx context.Context,
	operation, accountNumber, toAccountNumber string,
	amount decimal.Decimal,
	opErr error,
) {
	if !r.enabled {
		return
	}
	entry := &domain.AuditLogEntry{
		Operation:       operation,
		AccountNumber:   accountNumber,
		ToAccountNumber: toAccountNumber,
		Amount:          &amount,
		Success:         false,
		ErrorMessage:    opErr.Error(),
		Details:         fmt.Sprintf("Failed to %s %s: %v", operation, amount, opErr),
	}
	if err := r.record(ctx, entry); err != nil {
		r.logger.Error("failed to write failure audit entry",
			"operation", operation, "account", accountNumber, "error", err)
	}
}

// RecordEvent appends a free-form entry (account lifecycle, data recovery) in
// its own store transaction.
func (r *Recorder) RecordEvent(
	ctx context.Context,
	operation, accountNumber, details string,
	success bool,
) error {
	if !r.enabled {
		return nil
	}
	return r.record(ctx, &domain.AuditLogEntry{
		Operation:     operation,
		AccountNumber: accountNumber,
		Details:       details,
		Success:       success,
	})
}

func (r *Recorder) record(ctx context.Context, entry *domain.AuditLogEntry) error {
	stamp(entry)
	return r.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AuditLogRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, entry)
	})
}

func stamp(entry *domain.AuditLogEntry) {
	if entry.UserID == "" {
		entry.UserID = domain.AuditUserID
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Details == "" && entry.Amount != nil {
		entry.Details = transactionDetails(entry)
	}
}

func transactionDetails(entry *domain.AuditLogEntry) string {
	details := fmt.Sprintf("Operation: %s, Amount: %s", entry.Operation, entry.Amount)
	if entry.BalanceBefore != nil && entry.BalanceAfter != nil {
		details += fmt.Sprintf(", Balance: %s -> %s", entry.BalanceBefore, entry.BalanceAfter)
	}
	if entry.ToAccountNumber != "" {
		details += ", To Account: " + entry.ToAccountNumber
	}
	return details
}
