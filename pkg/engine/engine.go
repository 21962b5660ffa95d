// Package engine orchestrates deposits, withdrawals and transfers: it
// acquires coordination locks, re-reads authoritative state under row-level
// exclusivity, validates business rules, mutates balances, persists
// transaction and audit records in one store transaction, and publishes
// completion notifications after commit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/banking/pkg/audit"
	"github.com/amirasaad/banking/pkg/config"
	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/eventbus"
	"github.com/amirasaad/banking/pkg/lock"
	"github.com/amirasaad/banking/pkg/repository"
	"github.com/shopspring/decimal"
)

// Operation names as they appear in the audit trail.
const (
	OpDeposit  = "DEPOSIT"
	OpWithdraw = "WITHDRAWAL"
	OpTransfer = "TRANSFER"
)

// Deps bundles the collaborators of the engine.
type Deps struct {
	Uow    repository.UnitOfWork
	Locks  lock.Coordinator
	Audit  *audit.Recorder
	Bus    eventbus.Bus
	Cfg    *config.Banking
	Logger *slog.Logger
}

// Service is the transaction engine. It keeps no state between calls: one
// invocation is one atomic business operation.
type Service struct {
	uow    repository.UnitOfWork
	locks  lock.Coordinator
	audit  *audit.Recorder
	bus    eventbus.Bus
	cfg    *config.Banking
	logger *slog.Logger
}

// NewService creates the engine with the provided dependencies.
func NewService(deps Deps) *Service {
	return &Service{
		uow:    deps.Uow,
		locks:  deps.Locks,
		audit:  deps.Audit,
		bus:    deps.Bus,
		cfg:    deps.Cfg,
		logger: deps.Logger,
	}
}

// result carries what a committed critical section hands back to the shared
// run loop: the persisted transaction and the events to publish post-commit.
type result struct {
	tx     *domain.Transaction
	events []eventbus.Event
}

// Deposit adds amount to the account and records a COMPLETED transaction.
func (s *Service) Deposit(
	ctx context.Context,
	accountNumber string,
	amount decimal.Decimal,
	description string,
) (*domain.Transaction, error) {
	logger := s.logger.With("operation", OpDeposit, "account", accountNumber, "amount", amount)
	logger.Info("starting deposit")

	if err := validateAmount("deposit", amount, s.cfg.MaxDeposit); err != nil {
		s.audit.RecordFailure(ctx, OpDeposit, accountNumber, "", amount, err)
		return nil, err
	}

	tx, err := s.run(ctx, OpDeposit, lock.AccountKey(accountNumber), s.cfg.LockHold,
		accountNumber, "", amount,
		func(uow repository.UnitOfWork) (*result, error) {
			accounts, err := uow.AccountRepository()
			if err != nil {
				return nil, err
			}
			acct, err := accounts.GetForUpdate(ctx, accountNumber)
			if err != nil {
				return nil, err
			}
			before := acct.Balance
			after := before.Add(amount)
			if err := accounts.UpdateBalance(ctx, accountNumber, after, acct.Version); err != nil {
				return nil, err
			}
			trx := domain.NewTransaction(
				accountNumber, domain.TransactionTypeDeposit, amount, description)
			res, err := s.persist(ctx, uow, trx, &domain.AuditLogEntry{
				Operation:     OpDeposit,
				AccountNumber: accountNumber,
				TransactionID: &trx.ID,
				Amount:        &amount,
				BalanceBefore: &before,
				BalanceAfter:  &after,
				Success:       true,
			})
			if err != nil {
				return nil, err
			}
			res.events = []eventbus.Event{eventbus.TransactionCompleted{
				EventType:     eventbus.EventDepositCompleted,
				AccountNumber: accountNumber,
				Amount:        amount,
				TransactionID: trx.ID,
			}}
			return res, nil
		})
	if err != nil {
		logger.Error("deposit failed", "error", err)
		return nil, err
	}
	logger.Info("deposit completed", "transaction", tx.ID)
	return tx, nil
}

// Withdraw removes amount from the account, failing with
// domain.ErrInsufficientFunds when the balance cannot cover it.
func (s *Service) Withdraw(
	ctx context.Context,
	accountNumber string,
	amount decimal.Decimal,
	description string,
) (*domain.Transaction, error) {
	logger := s.logger.With("operation", OpWithdraw, "account", accountNumber, "amount", amount)
	logger.Info("starting withdrawal")

	if err := validateAmount("withdrawal", amount, s.cfg.MaxWithdrawal); err != nil {
		s.audit.RecordFailure(ctx, OpWithdraw, accountNumber, "", amount, err)
		return nil, err
	}

	tx, err := s.run(ctx, OpWithdraw, lock.AccountKey(accountNumber), s.cfg.LockHold,
		accountNumber, "", amount,
		func(uow repository.UnitOfWork) (*result, error) {
			accounts, err := uow.AccountRepository()
			if err != nil {
				return nil, err
			}
			acct, err := accounts.GetForUpdate(ctx, accountNumber)
			if err != nil {
				return nil, err
			}
			if !acct.HasSufficientFunds(amount) {
				return nil, fmt.Errorf("available: %s, requested: %s: %w",
					acct.Balance, amount, domain.ErrInsufficientFunds)
			}
			before := acct.Balance
			after := before.Sub(amount)
			if err := accounts.UpdateBalance(ctx, accountNumber, after, acct.Version); err != nil {
				return nil, err
			}
			trx := domain.NewTransaction(
				accountNumber, domain.TransactionTypeWithdrawal, amount, description)
			res, err := s.persist(ctx, uow, trx, &domain.AuditLogEntry{
				Operation:     OpWithdraw,
				AccountNumber: accountNumber,
				TransactionID: &trx.ID,
				Amount:        &amount,
				BalanceBefore: &before,
				BalanceAfter:  &after,
				Success:       true,
			})
			if err != nil {
				return nil, err
			}
			res.events = []eventbus.Event{eventbus.TransactionCompleted{
				EventType:     eventbus.EventWithdrawCompleted,
				AccountNumber: accountNumber,
				Amount:        amount,
				TransactionID: trx.ID,
			}}
			return res, nil
		})
	if err != nil {
		logger.Error("withdrawal failed", "error", err)
		return nil, err
	}
	logger.Info("withdrawal completed", "transaction", tx.ID)
	return tx, nil
}

// Transfer moves amount from one account to another under a single compound
// lock. One transaction record is persisted, owned by the source account; two
// completion events are published, one per affected account.
func (s *Service) Transfer(
	ctx context.Context,
	fromAccount, toAccount string,
	amount decimal.Decimal,
	description string,
) (*domain.Transaction, error) {
	logger := s.logger.With(
		"operation", OpTransfer, "from", fromAccount, "to", toAccount, "amount", amount)
	logger.Info("starting transfer")

	if err := validateAmount("transfer", amount, s.cfg.MaxTransfer); err != nil {
		s.audit.RecordFailure(ctx, OpTransfer, fromAccount, toAccount, amount, err)
		return nil, err
	}
	if fromAccount == toAccount {
		err := domain.ErrSameAccountTransfer
		s.audit.RecordFailure(ctx, OpTransfer, fromAccount, toAccount, amount, err)
		return nil, err
	}

	tx, err := s.run(ctx, OpTransfer, lock.PairKey(fromAccount, toAccount),
		s.cfg.TransferLockHold, fromAccount, toAccount, amount,
		func(uow repository.UnitOfWork) (*result, error) {
			accounts, err := uow.AccountRepository()
			if err != nil {
				return nil, err
			}
			src, err := accounts.GetForUpdate(ctx, fromAccount)
			if err != nil {
				return nil, fmt.Errorf("source account: %w", err)
			}
			dst, err := accounts.GetForUpdate(ctx, toAccount)
			if err != nil {
				return nil, fmt.Errorf("destination account: %w", err)
			}
			if !src.HasSufficientFunds(amount) {
				return nil, fmt.Errorf("available: %s, requested: %s: %w",
					src.Balance, amount, domain.ErrInsufficientFunds)
			}
			srcBefore := src.Balance
			srcAfter := srcBefore.Sub(amount)
			dstAfter := dst.Balance.Add(amount)
			if err := accounts.UpdateBalance(ctx, fromAccount, srcAfter, src.Version); err != nil {
				return nil, err
			}
			if err := accounts.UpdateBalance(ctx, toAccount, dstAfter, dst.Version); err != nil {
				return nil, err
			}
			trx := domain.NewTransaction(
				fromAccount, domain.TransactionTypeTransfer, amount,
				fmt.Sprintf("Transfer to %s: %s", toAccount, description))
			res, err := s.persist(ctx, uow, trx, &domain.AuditLogEntry{
				Operation:       OpTransfer,
				AccountNumber:   fromAccount,
				ToAccountNumber: toAccount,
				TransactionID:   &trx.ID,
				Amount:          &amount,
				BalanceBefore:   &srcBefore,
				BalanceAfter:    &srcAfter,
				Success:         true,
			})
			if err != nil {
				return nil, err
			}
			res.events = []eventbus.Event{
				eventbus.TransactionCompleted{
					EventType:     eventbus.EventTransferSent,
					AccountNumber: fromAccount,
					Amount:        amount,
					TransactionID: trx.ID,
				},
				eventbus.TransactionCompleted{
					EventType:     eventbus.EventTransferReceived,
					AccountNumber: toAccount,
					Amount:        amount,
					TransactionID: trx.ID,
				},
			}
			return res, nil
		})
	if err != nil {
		logger.Error("transfer failed", "error", err)
		return nil, err
	}
	logger.Info("transfer completed", "transaction", tx.ID)
	return tx, nil
}

// AccountTransactions returns the account's transactions newest-first. It is
// read-only and takes no coordination lock.
func (s *Service) AccountTransactions(
	ctx context.Context,
	accountNumber string,
) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if _, err := accounts.Get(ctx, accountNumber); err != nil {
			return err
		}
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		txs, err = repo.ListByAccount(ctx, accountNumber)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// run executes fn inside the coordination lock and a store transaction,
// retrying the whole cycle on optimistic version conflicts up to the
// configured bound with a fixed backoff between attempts. Failures other than
// lock timeouts are audited exactly once, after retries are exhausted.
// Notifications publish only after the store transaction has committed.
func (s *Service) run(
	ctx context.Context,
	op, key string,
	hold time.Duration,
	accountNumber, toAccountNumber string,
	amount decimal.Decimal,
	fn func(uow repository.UnitOfWork) (*result, error),
) (*domain.Transaction, error) {
	var res *result
	for attempt := 1; ; attempt++ {
		guard, err := s.locks.Acquire(ctx, key, s.cfg.LockMaxWait, hold)
		if err != nil {
			// The lock never opened a critical section, so there is no
			// business failure to audit.
			return nil, fmt.Errorf("acquire lock %q: %w", key, err)
		}

		err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			r, ferr := fn(uow)
			if ferr != nil {
				return ferr
			}
			res = r
			return nil
		})

		if rerr := guard.Release(ctx); rerr != nil {
			s.logger.Warn("lock release failed", "key", key, "error", rerr)
		}

		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrVersionConflict) && attempt < s.cfg.RetryAttempts {
			s.logger.Warn("optimistic version conflict, retrying",
				"operation", op, "account", accountNumber, "attempt", attempt)
			select {
			case <-ctx.Done():
				err = ctx.Err()
			case <-time.After(s.cfg.RetryBackoff):
				continue
			}
		}
		s.audit.RecordFailure(ctx, op, accountNumber, toAccountNumber, amount, err)
		return nil, err
	}

	for _, evt := range res.events {
		if perr := s.bus.Publish(ctx, evt); perr != nil {
			// Best-effort: the operation has durably committed.
			s.logger.Error("failed to publish completion event",
				"operation", op, "account", accountNumber, "error", perr)
		}
	}
	return res.tx, nil
}

// persist writes the transaction record and its success audit entry inside
// the same store transaction as the balance mutation.
func (s *Service) persist(
	ctx context.Context,
	uow repository.UnitOfWork,
	trx *domain.Transaction,
	entry *domain.AuditLogEntry,
) (*result, error) {
	txRepo, err := uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	if err := txRepo.Create(ctx, trx); err != nil {
		return nil, err
	}
	auditRepo, err := uow.AuditLogRepository()
	if err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, auditRepo, entry); err != nil {
		return nil, err
	}
	return &result{tx: trx}, nil
}

func validateAmount(kind string, amount, ceiling decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%s %w", kind, domain.ErrAmountNotPositive)
	}
	if amount.Cmp(ceiling) > 0 {
		return fmt.Errorf("%s of %s exceeds limit of %s: %w",
			kind, amount, ceiling, domain.ErrAmountExceedsLimit)
	}
	return nil
}
