package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement a record describes
type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	TypeTransfer   TransactionType = "TRANSFER"
)

// TransactionStatus is the lifecycle state of a record.
//
//	PENDING -> COMPLETED | FAILED | CANCELLED
//
// COMPLETED, FAILED and CANCELLED are terminal.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

const transactionIDPrefix = "TXN"

var (
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidTransition  = errors.New("invalid transaction status transition")
)

// Terminal reports whether no further transition is allowed from s.
func (s TransactionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Transaction is the audit record of a single money movement
type Transaction struct {
	ID          string            `json:"transaction_id"`
	FromAccount string            `json:"from_account_number,omitempty"`
	ToAccount   string            `json:"to_account_number,omitempty"`
	Amount      decimal.Decimal   `json:"amount"`
	Type        TransactionType   `json:"transaction_type"`
	Description string            `json:"description"`
	PerformedBy string            `json:"performed_by"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewTransactionID returns "TXN" followed by 8 uppercase alphanumeric characters.
func NewTransactionID() string {
	return transactionIDPrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// NewTransaction builds a PENDING record after checking the shape rules for its type.
func NewTransaction(typ TransactionType, from, to string, amount decimal.Decimal, description, performedBy string) (*Transaction, error) {
	tx := &Transaction{
		FromAccount: from,
		ToAccount:   to,
		Amount:      amount,
		Type:        typ,
		Description: description,
		PerformedBy: performedBy,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx.ID = NewTransactionID()
	tx.Status = StatusPending
	tx.CreatedAt = now
	tx.UpdatedAt = now
	return tx, nil
}

// Validate checks the amount and the from/to shape for the record's type.
func (t *Transaction) Validate() error {
	if err := CheckAmount(t.Amount); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}

	switch t.Type {
	case TypeDeposit:
		if t.ToAccount == "" || t.FromAccount != "" {
			return fmt.Errorf("%w: deposit needs only a destination account", ErrInvalidTransaction)
		}
	case TypeWithdrawal:
		if t.FromAccount == "" || t.ToAccount != "" {
			return fmt.Errorf("%w: withdrawal needs only a source account", ErrInvalidTransaction)
		}
	case TypeTransfer:
		if t.FromAccount == "" || t.ToAccount == "" {
			return fmt.Errorf("%w: transfer needs both accounts", ErrInvalidTransaction)
		}
		if t.FromAccount == t.ToAccount {
			return fmt.Errorf("%w: transfer accounts must differ", ErrInvalidTransaction)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, t.Type)
	}
	return nil
}

// Complete marks the record as durably applied.
func (t *Transaction) Complete() error {
	return t.transition(StatusCompleted)
}

// Fail marks the record as rejected or not durably applied.
func (t *Transaction) Fail() error {
	return t.transition(StatusFailed)
}

// Cancel is only reachable before any balance effect, i.e. from PENDING.
func (t *Transaction) Cancel() error {
	return t.transition(StatusCancelled)
}

func (t *Transaction) transition(to TransactionStatus) error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
	}
	t.Status = to
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Involves reports whether the record touches the given account.
func (t *Transaction) Involves(accountNumber string) bool {
	return t.FromAccount == accountNumber || t.ToAccount == accountNumber
}
