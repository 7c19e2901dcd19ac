package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/account-ledger/internal/models"
)

const TopicTransactionCompleted = "transaction_completed"

type TransactionCompleted struct {
	TransactionID string                 `json:"transaction_id"`
	Type          models.TransactionType `json:"transaction_type"`
	FromAccount   string                 `json:"from_account,omitempty"`
	ToAccount     string                 `json:"to_account,omitempty"`
	Amount        decimal.Decimal        `json:"amount"`
	PerformedBy   string                 `json:"performed_by"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

// NewTransactionCompleted builds the event for a COMPLETED record
func NewTransactionCompleted(tx *models.Transaction) TransactionCompleted {
	return TransactionCompleted{
		TransactionID: tx.ID,
		Type:          tx.Type,
		FromAccount:   tx.FromAccount,
		ToAccount:     tx.ToAccount,
		Amount:        tx.Amount,
		PerformedBy:   tx.PerformedBy,
		OccurredAt:    tx.UpdatedAt,
	}
}

// EventKey partitions events by transaction id.
func (e TransactionCompleted) EventKey() string {
	return e.TransactionID
}
