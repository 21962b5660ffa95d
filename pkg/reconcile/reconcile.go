// Package reconcile replays the audit trail to detect missing transactions,
// reconstruct historical balances and surface discrepancies. It runs
// independently of live traffic, reads only the ledger store and the audit
// log, and never auto-corrects: correction is always a separate, explicit,
// audited action.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/banking/pkg/audit"
	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpDataRecovery is the audit operation name for reconciliation events.
const OpDataRecovery = "DATA_RECOVERY"

// integrityWindow is how far back PerformIntegrityCheck scans.
const integrityWindow = 30 * 24 * time.Hour

// Anomaly is a successful audit entry whose referenced transaction record is
// absent from the store.
type Anomaly struct {
	AuditLogID    int64
	TransactionID uuid.UUID
	AccountNumber string
	Timestamp     time.Time
}

// Report is the outcome of a full integrity check.
type Report struct {
	AccountNumber       string
	BalanceValid        bool
	MissingTransactions []Anomaly
	Discrepancies       []domain.AuditLogEntry
}

// Service implements the reconciliation operations.
type Service struct {
	uow    repository.UnitOfWork
	audit  *audit.Recorder
	logger *slog.Logger
}

// NewService creates the reconciliation service.
func NewService(uow repository.UnitOfWork, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{uow: uow, audit: recorder, logger: logger}
}

// DetectMissingTransactions scans successful audit entries for the account in
// [from, to] and reports every entry whose referenced transaction record does
// not exist. Each anomaly is itself audited as a failed data-recovery event.
func (s *Service) DetectMissingTransactions(
	ctx context.Context,
	accountNumber string,
	from, to time.Time,
) ([]Anomaly, error) {
	s.logger.Info("detecting missing transactions",
		"account", accountNumber, "from", from, "to", to)

	var anomalies []Anomaly
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		audits, err := uow.AuditLogRepository()
		if err != nil {
			return err
		}
		entries, err := audits.ListSuccessfulInWindow(ctx, accountNumber, from, to)
		if err != nil {
			return err
		}
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.TransactionID == nil {
				continue
			}
			_, err := txs.Get(ctx, *entry.TransactionID)
			if errors.Is(err, domain.ErrTransactionNotFound) {
				anomalies = append(anomalies, Anomaly{
					AuditLogID:    entry.ID,
					TransactionID: *entry.TransactionID,
					AccountNumber: entry.AccountNumber,
					Timestamp:     entry.Timestamp,
				})
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, a := range anomalies {
		s.logger.Warn("missing transaction detected",
			"auditLogID", a.AuditLogID, "transaction", a.TransactionID, "account", accountNumber)
		if aerr := s.audit.RecordEvent(ctx, OpDataRecovery, accountNumber,
			"Missing transaction detected: "+a.TransactionID.String(), false); aerr != nil {
			s.logger.Error("failed to audit missing-transaction anomaly", "error", aerr)
		}
	}
	return anomalies, nil
}

// ReconstructBalance replays successful audit entries up to asOf and returns
// the balance-after of the last one. The second return reports whether any
// history existed: a zero balance with no history is ambiguous between a
// genuinely empty account and an audit gap, and must not be trusted blindly.
func (s *Service) ReconstructBalance(
	ctx context.Context,
	accountNumber string,
	asOf time.Time,
) (decimal.Decimal, bool, error) {
	var (
		balance decimal.Decimal
		found   bool
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		audits, err := uow.AuditLogRepository()
		if err != nil {
			return err
		}
		entries, err := audits.ListSuccessfulBefore(ctx, accountNumber, asOf)
		if err != nil {
			return err
		}
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].BalanceAfter != nil {
				balance = *entries[i].BalanceAfter
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, false, err
	}
	if !found {
		s.logger.Warn("no audit history for account, reconstructed balance is zero",
			"account", accountNumber, "asOf", asOf)
	}
	return balance, found, nil
}

// ValidateBalance compares the live stored balance with the reconstructed one.
// A mismatch is audited as a discrepancy; it is never auto-corrected.
func (s *Service) ValidateBalance(ctx context.Context, accountNumber string) (bool, error) {
	var current decimal.Decimal
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acct, err := accounts.Get(ctx, accountNumber)
		if err != nil {
			return err
		}
		current = acct.Balance
		return nil
	})
	if err != nil {
		return false, err
	}

	reconstructed, hasHistory, err := s.ReconstructBalance(ctx, accountNumber, time.Now())
	if err != nil {
		return false, err
	}

	if current.Cmp(reconstructed) == 0 {
		s.logger.Info("balance validation successful", "account", accountNumber)
		return true, nil
	}

	details := fmt.Sprintf("Balance discrepancy: Current=%s, Reconstructed=%s",
		current, reconstructed)
	if !hasHistory {
		details += " (no audit history, possible audit gap)"
	}
	s.logger.Error("balance discrepancy detected",
		"account", accountNumber, "current", current, "reconstructed", reconstructed,
		"hasHistory", hasHistory)
	if aerr := s.audit.RecordEvent(ctx, OpDataRecovery, accountNumber, details, false); aerr != nil {
		s.logger.Error("failed to audit balance discrepancy", "error", aerr)
	}
	return false, nil
}

// RecoverMissingTransaction is idempotent: when the transaction referenced by
// the audit entry already exists it reports recovered with no mutation.
// Otherwise automatic reconstruction is unsafe (amount and balance fields
// alone cannot prove ordering against concurrent operations), so it records
// that manual intervention is required and reports not recovered. No
// compensating transaction is ever created.
func (s *Service) RecoverMissingTransaction(ctx context.Context, auditLogID int64) (bool, error) {
	var (
		entry  *domain.AuditLogEntry
		exists bool
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		audits, err := uow.AuditLogRepository()
		if err != nil {
			return err
		}
		entry, err = audits.Get(ctx, auditLogID)
		if err != nil {
			return err
		}
		if entry.TransactionID == nil {
			return nil
		}
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		_, err = txs.Get(ctx, *entry.TransactionID)
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if exists {
		s.logger.Info("transaction already exists, no recovery needed",
			"auditLogID", auditLogID, "transaction", entry.TransactionID)
		return true, nil
	}

	s.logger.Warn("transaction recovery requires manual intervention", "auditLogID", auditLogID)
	if aerr := s.audit.RecordEvent(ctx, OpDataRecovery, entry.AccountNumber,
		fmt.Sprintf("Manual transaction recovery required for audit log: %d", auditLogID),
		false); aerr != nil {
		s.logger.Error("failed to audit recovery outcome", "error", aerr)
	}
	return false, nil
}

// IntegrityReport returns every audit entry for the account in [from, to],
// successes and failures alike, and audits that the report was generated.
func (s *Service) IntegrityReport(
	ctx context.Context,
	accountNumber string,
	from, to time.Time,
) ([]domain.AuditLogEntry, error) {
	var entries []domain.AuditLogEntry
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		audits, err := uow.AuditLogRepository()
		if err != nil {
			return err
		}
		entries, err = audits.ListInWindow(ctx, accountNumber, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	if aerr := s.audit.RecordEvent(ctx, OpDataRecovery, accountNumber,
		fmt.Sprintf("Data integrity report generated: %d items found", len(entries)),
		true); aerr != nil {
		s.logger.Error("failed to audit integrity report", "error", aerr)
	}
	return entries, nil
}

// PerformIntegrityCheck composes balance validation, a missing-transaction
// scan over the trailing 30 days and a discrepancy report, then emits one
// summary audit record.
func (s *Service) PerformIntegrityCheck(ctx context.Context, accountNumber string) (*Report, error) {
	s.logger.Info("performing data integrity check", "account", accountNumber)

	balanceValid, err := s.ValidateBalance(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	since := now.Add(-integrityWindow)
	missing, err := s.DetectMissingTransactions(ctx, accountNumber, since, now)
	if err != nil {
		return nil, err
	}
	discrepancies, err := s.IntegrityReport(ctx, accountNumber, since, now)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf(
		"Data integrity check completed. Balance Valid: %t, Missing Transactions: %d, Discrepancies: %d",
		balanceValid, len(missing), len(discrepancies))
	if aerr := s.audit.RecordEvent(ctx, OpDataRecovery, accountNumber, summary, balanceValid); aerr != nil {
		s.logger.Error("failed to audit integrity check summary", "error", aerr)
	}

	return &Report{
		AccountNumber:       accountNumber,
		BalanceValid:        balanceValid,
		MissingTransactions: missing,
		Discrepancies:       discrepancies,
	}, nil
}
