// Package account provides account opening and lookup. Balance mutations are
// the transaction engine's job; this service never touches balances outside
// account creation.
package account

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/banking/pkg/audit"
	"github.com/amirasaad/banking/pkg/config"
	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cache is a read-through cache for account lookups. Implementations are
// best-effort: a miss or a cache failure falls back to the store.
type Cache interface {
	Get(ctx context.Context, number string) (*domain.Account, bool)
	Set(ctx context.Context, account *domain.Account)
	Evict(ctx context.Context, number string)
}

// Service provides account lifecycle operations.
type Service struct {
	uow    repository.UnitOfWork
	cache  Cache
	audit  *audit.Recorder
	cfg    *config.Banking
	logger *slog.Logger
}

// NewService creates the account service. cache may be nil.
func NewService(
	uow repository.UnitOfWork,
	cache Cache,
	recorder *audit.Recorder,
	cfg *config.Banking,
	logger *slog.Logger,
) *Service {
	return &Service{uow: uow, cache: cache, audit: recorder, cfg: cfg, logger: logger}
}

// Create opens a new account with a generated account number.
func (s *Service) Create(
	ctx context.Context,
	currency string,
	accountType domain.AccountType,
	initialBalance decimal.Decimal,
) (*domain.Account, error) {
	if initialBalance.Sign() < 0 {
		return nil, domain.ErrAmountNotPositive
	}
	now := time.Now()
	acct := &domain.Account{
		Number:    GenerateAccountNumber(s.cfg.AccountNumberLength),
		Balance:   initialBalance,
		Currency:  currency,
		Type:      accountType,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   0,
	}
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, acct)
	})
	if err != nil {
		s.logger.Error("account creation failed", "error", err)
		if aerr := s.audit.RecordEvent(ctx, "CREATE_ACCOUNT", acct.Number,
			"Failed to create account: "+err.Error(), false); aerr != nil {
			s.logger.Error("failed to audit account creation failure", "error", aerr)
		}
		return nil, err
	}
	if aerr := s.audit.RecordEvent(ctx, "CREATE_ACCOUNT", acct.Number,
		"Account created successfully", true); aerr != nil {
		s.logger.Error("failed to audit account creation", "error", aerr)
	}
	s.logger.Info("account created", "account", acct.Number, "type", acct.Type)
	return acct, nil
}

// Get returns the account, read through the cache when one is configured.
func (s *Service) Get(ctx context.Context, number string) (*domain.Account, error) {
	if s.cache != nil {
		if acct, ok := s.cache.Get(ctx, number); ok {
			return acct, nil
		}
	}
	var acct *domain.Account
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acct, err = repo.Get(ctx, number)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, acct)
	}
	return acct, nil
}

// Balance returns the account's live stored balance.
func (s *Service) Balance(ctx context.Context, number string) (decimal.Decimal, error) {
	acct, err := s.Get(ctx, number)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Balance, nil
}

// GenerateAccountNumber derives a fixed-length upper-case alphanumeric
// account number from a fresh UUID.
func GenerateAccountNumber(length int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if length > len(raw) {
		length = len(raw)
	}
	return strings.ToUpper(raw[:length])
}
