// Package storage holds the errors shared by every LedgerStore implementation.
package storage

import "errors"

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateTransaction is returned when a record id is already stored.
	ErrDuplicateTransaction = errors.New("transaction id already exists")
)
