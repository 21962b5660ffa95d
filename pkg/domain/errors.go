package domain

import "errors"

var (
	// ErrAccountNotFound is returned when an account cannot be found.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds is returned when an account has insufficient funds
	// for a withdrawal or transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSameAccountTransfer is returned when a transfer is attempted from an
	// account to itself.
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")

	// ErrAmountNotPositive is returned when a transaction amount is zero or negative.
	ErrAmountNotPositive = errors.New("amount must be positive")

	// ErrAmountExceedsLimit is returned when a transaction amount is above the
	// per-operation ceiling for its type.
	ErrAmountExceedsLimit = errors.New("amount exceeds maximum limit")

	// ErrVersionConflict is returned when an optimistic write is rejected because
	// the record's version stamp changed since it was read.
	ErrVersionConflict = errors.New("account version conflict")

	// ErrLockTimeout is returned when a coordination lock could not be acquired
	// within the configured wait bound.
	ErrLockTimeout = errors.New("could not acquire lock")

	// ErrAuditLogNotFound is returned when an audit log entry cannot be found.
	ErrAuditLogNotFound = errors.New("audit log entry not found")

	// ErrTransactionNotFound is returned when a transaction record cannot be found.
	ErrTransactionNotFound = errors.New("transaction not found")
)
