package models

import (
	"github.com/shopspring/decimal"
)

// BalanceUpdate is the new durable balance of one account.
// A slice of them is written as a single unit by the store.
type BalanceUpdate struct {
	AccountNumber string          // which account the balance belongs to
	Balance       decimal.Decimal // balance after the operation
}

// AccountSummary aggregates all registered accounts
type AccountSummary struct {
	TotalAccounts int             `json:"total_accounts"`
	TotalBalance  decimal.Decimal `json:"total_balance"`
}

// TransactionSummary aggregates COMPLETED transaction records
type TransactionSummary struct {
	TotalTransactions int             `json:"total_transactions"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
}
