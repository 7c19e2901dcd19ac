package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNumberRequired = errors.New("account number is required")
	ErrSameAccount           = errors.New("source and destination accounts must differ")
	ErrAccountNotFound       = errors.New("account not found")
	ErrInsufficientFunds     = errors.New("insufficient funds or below minimum balance")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrPersistence           = errors.New("persistence failure")
)

// Side tells which leg of a transfer an error refers to.
type Side string

const (
	SideAccount Side = "account" // deposits and withdrawals have a single leg
	SideFrom    Side = "from"
	SideTo      Side = "to"
)

// AccountNotFoundError reports which account could not be resolved.
type AccountNotFoundError struct {
	Side   Side
	Number string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("%s account %q not found", e.Side, e.Number)
}

func (e *AccountNotFoundError) Is(target error) bool {
	return target == ErrAccountNotFound
}

// PersistenceError means the durable store could not be written or read.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
