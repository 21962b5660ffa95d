// Package memory is an in-memory implementation of the ledger store
// contracts. It is transactional (rollback restores the pre-Do snapshot),
// thread-safe, and can inject optimistic version conflicts, which makes it
// the store of choice for engine and reconciliation tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store holds all records in memory. A single mutex serializes transactions,
// which mirrors the isolation the real store provides through row locks.
type Store struct {
	mu           sync.Mutex
	accounts     map[string]domain.Account
	transactions map[uuid.UUID]domain.Transaction
	txOrder      []uuid.UUID
	auditLogs    []domain.AuditLogEntry
	nextAuditID  int64
	conflicts    int
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		transactions: make(map[uuid.UUID]domain.Transaction),
		nextAuditID:  1,
	}
}

// ForceVersionConflicts makes the next n balance updates fail with
// domain.ErrVersionConflict, regardless of the version supplied.
func (s *Store) ForceVersionConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = n
}

type snapshot struct {
	accounts     map[string]domain.Account
	transactions map[uuid.UUID]domain.Transaction
	txOrder      []uuid.UUID
	auditLogs    []domain.AuditLogEntry
	nextAuditID  int64
}

func (s *Store) snapshot() snapshot {
	accounts := make(map[string]domain.Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	transactions := make(map[uuid.UUID]domain.Transaction, len(s.transactions))
	for k, v := range s.transactions {
		transactions[k] = v
	}
	return snapshot{
		accounts:     accounts,
		transactions: transactions,
		txOrder:      append([]uuid.UUID(nil), s.txOrder...),
		auditLogs:    append([]domain.AuditLogEntry(nil), s.auditLogs...),
		nextAuditID:  s.nextAuditID,
	}
}

func (s *Store) restore(snap snapshot) {
	s.accounts = snap.accounts
	s.transactions = snap.transactions
	s.txOrder = snap.txOrder
	s.auditLogs = snap.auditLogs
	s.nextAuditID = snap.nextAuditID
}

// Do implements repository.UnitOfWork. The store mutex is held for the whole
// boundary; an error from fn restores the pre-transaction snapshot.
func (s *Store) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&txSession{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// AccountRepository implements repository.UnitOfWork for use outside Do.
func (s *Store) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepo{store: s, locking: true}, nil
}

// TransactionRepository implements repository.UnitOfWork for use outside Do.
func (s *Store) TransactionRepository() (repository.TransactionRepository, error) {
	return &transactionRepo{store: s, locking: true}, nil
}

// AuditLogRepository implements repository.UnitOfWork for use outside Do.
func (s *Store) AuditLogRepository() (repository.AuditLogRepository, error) {
	return &auditLogRepo{store: s, locking: true}, nil
}

var _ repository.UnitOfWork = (*Store)(nil)

// txSession hands out repositories bound to the transaction already holding
// the store mutex.
type txSession struct {
	store *Store
}

func (t *txSession) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return fn(t)
}

func (t *txSession) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepo{store: t.store}, nil
}

func (t *txSession) TransactionRepository() (repository.TransactionRepository, error) {
	return &transactionRepo{store: t.store}, nil
}

func (t *txSession) AuditLogRepository() (repository.AuditLogRepository, error) {
	return &auditLogRepo{store: t.store}, nil
}

type accountRepo struct {
	store   *Store
	locking bool
}

func (r *accountRepo) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *accountRepo) Create(ctx context.Context, a *domain.Account) error {
	defer r.lock()()
	r.store.accounts[a.Number] = *a
	return nil
}

func (r *accountRepo) Get(ctx context.Context, number string) (*domain.Account, error) {
	defer r.lock()()
	a, ok := r.store.accounts[number]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &a, nil
}

// GetForUpdate is equivalent to Get here: the store mutex held by the
// enclosing Do already gives the transaction exclusive access.
func (r *accountRepo) GetForUpdate(ctx context.Context, number string) (*domain.Account, error) {
	return r.Get(ctx, number)
}

func (r *accountRepo) UpdateBalance(
	ctx context.Context,
	number string,
	balance decimal.Decimal,
	expectedVersion int64,
) error {
	defer r.lock()()
	if r.store.conflicts > 0 {
		r.store.conflicts--
		return domain.ErrVersionConflict
	}
	a, ok := r.store.accounts[number]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if a.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	a.Balance = balance
	a.Version = expectedVersion + 1
	a.UpdatedAt = time.Now()
	r.store.accounts[number] = a
	return nil
}

type transactionRepo struct {
	store   *Store
	locking bool
}

func (r *transactionRepo) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *transactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	defer r.lock()()
	r.store.transactions[t.ID] = *t
	r.store.txOrder = append(r.store.txOrder, t.ID)
	return nil
}

func (r *transactionRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	defer r.lock()()
	t, ok := r.store.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &t, nil
}

func (r *transactionRepo) ListByAccount(
	ctx context.Context,
	accountNumber string,
) ([]domain.Transaction, error) {
	defer r.lock()()
	var txs []domain.Transaction
	// Insertion order reversed gives newest-first.
	for i := len(r.store.txOrder) - 1; i >= 0; i-- {
		t := r.store.transactions[r.store.txOrder[i]]
		if t.AccountNumber == accountNumber {
			txs = append(txs, t)
		}
	}
	return txs, nil
}

// Delete removes a transaction record. The real store has no delete path;
// this exists so reconciliation tests can fabricate missing transactions.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transactions, id)
	for i, txID := range s.txOrder {
		if txID == id {
			s.txOrder = append(s.txOrder[:i], s.txOrder[i+1:]...)
			break
		}
	}
}

type auditLogRepo struct {
	store   *Store
	locking bool
}

func (r *auditLogRepo) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *auditLogRepo) Create(ctx context.Context, e *domain.AuditLogEntry) error {
	defer r.lock()()
	e.ID = r.store.nextAuditID
	r.store.nextAuditID++
	r.store.auditLogs = append(r.store.auditLogs, *e)
	return nil
}

func (r *auditLogRepo) Get(ctx context.Context, id int64) (*domain.AuditLogEntry, error) {
	defer r.lock()()
	for i := range r.store.auditLogs {
		if r.store.auditLogs[i].ID == id {
			e := r.store.auditLogs[i]
			return &e, nil
		}
	}
	return nil, domain.ErrAuditLogNotFound
}

func (r *auditLogRepo) ListSuccessfulInWindow(
	ctx context.Context,
	accountNumber string,
	from, to time.Time,
) ([]domain.AuditLogEntry, error) {
	return r.filter(func(e *domain.AuditLogEntry) bool {
		return e.AccountNumber == accountNumber && e.Success &&
			!e.Timestamp.Before(from) && !e.Timestamp.After(to)
	}), nil
}

func (r *auditLogRepo) ListSuccessfulBefore(
	ctx context.Context,
	accountNumber string,
	asOf time.Time,
) ([]domain.AuditLogEntry, error) {
	return r.filter(func(e *domain.AuditLogEntry) bool {
		return e.AccountNumber == accountNumber && e.Success && !e.Timestamp.After(asOf)
	}), nil
}

func (r *auditLogRepo) ListInWindow(
	ctx context.Context,
	accountNumber string,
	from, to time.Time,
) ([]domain.AuditLogEntry, error) {
	return r.filter(func(e *domain.AuditLogEntry) bool {
		return e.AccountNumber == accountNumber &&
			!e.Timestamp.Before(from) && !e.Timestamp.After(to)
	}), nil
}

func (r *auditLogRepo) ListRecent(
	ctx context.Context,
	accountNumber string,
	limit int,
) ([]domain.AuditLogEntry, error) {
	defer r.lock()()
	var entries []domain.AuditLogEntry
	for i := len(r.store.auditLogs) - 1; i >= 0 && len(entries) < limit; i-- {
		if r.store.auditLogs[i].AccountNumber == accountNumber {
			entries = append(entries, r.store.auditLogs[i])
		}
	}
	return entries, nil
}

func (r *auditLogRepo) filter(keep func(*domain.AuditLogEntry) bool) []domain.AuditLogEntry {
	defer r.lock()()
	var entries []domain.AuditLogEntry
	for i := range r.store.auditLogs {
		if keep(&r.store.auditLogs[i]) {
			entries = append(entries, r.store.auditLogs[i])
		}
	}
	return entries
}
