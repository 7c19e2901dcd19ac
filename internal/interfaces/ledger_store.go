package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/account-ledger/internal/models"
)

// LedgerStore is the persistence collaborator of the ledger.
// LoadAccount returns storage.ErrAccountNotFound for unknown numbers and
// GetTransaction returns storage.ErrTransactionNotFound for unknown ids.
type LedgerStore interface {
	CreateAccount(ctx context.Context, account models.Account) error
	LoadAccount(ctx context.Context, number string) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	SaveAccountBalance(ctx context.Context, number string, balance decimal.Decimal) error
	// SaveBalances writes every update or none of them.
	SaveBalances(ctx context.Context, updates []models.BalanceUpdate) error

	SaveTransaction(ctx context.Context, tx models.Transaction) error
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
	ListTransactionsByAccount(ctx context.Context, number string) ([]models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus) error

	AccountSummary(ctx context.Context) (models.AccountSummary, error)
	TransactionSummary(ctx context.Context) (models.TransactionSummary, error)
}
