package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/account-ledger/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger/internal/models"
	"github.com/sheikh-saqib/account-ledger/internal/storage"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// Every read hands out copies so callers never alias the stored state.
type MemoryLedgerStore struct {
	mu           sync.Mutex                    // protects everything below
	accounts     map[string]models.Account     // account number -> account
	order        []string                      // account numbers in registration order
	transactions map[string]models.Transaction // transaction id -> record
	txOrder      []string                      // transaction ids in insertion order
}

// NewMemoryLedgerStore creates and returns a new MemoryLedgerStore instance
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts:     make(map[string]models.Account),
		transactions: make(map[string]models.Transaction),
	}
}

func (m *MemoryLedgerStore) CreateAccount(ctx context.Context, account models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.Number]; exists {
		return fmt.Errorf("%w: %s", storage.ErrDuplicateAccount, account.Number)
	}
	m.accounts[account.Number] = account
	m.order = append(m.order, account.Number)
	return nil
}

func (m *MemoryLedgerStore) LoadAccount(ctx context.Context, number string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[number]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}
	return account, nil
}

// ListAccounts returns a copy of all accounts in registration order.
func (m *MemoryLedgerStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Account, 0, len(m.order))
	for _, number := range m.order {
		out = append(out, m.accounts[number])
	}
	return out, nil
}

func (m *MemoryLedgerStore) SaveAccountBalance(ctx context.Context, number string, balance decimal.Decimal) error {
	return m.SaveBalances(ctx, []models.BalanceUpdate{{AccountNumber: number, Balance: balance}})
}

// SaveBalances checks every account first so a missing one leaves all balances untouched.
func (m *MemoryLedgerStore) SaveBalances(ctx context.Context, updates []models.BalanceUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range updates {
		if _, ok := m.accounts[u.AccountNumber]; !ok {
			return fmt.Errorf("%w: %s", storage.ErrAccountNotFound, u.AccountNumber)
		}
	}
	for _, u := range updates {
		account := m.accounts[u.AccountNumber]
		account.Balance = u.Balance
		m.accounts[u.AccountNumber] = account
	}
	return nil
}

func (m *MemoryLedgerStore) SaveTransaction(ctx context.Context, tx models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.transactions[tx.ID]; exists {
		return fmt.Errorf("%w: %s", storage.ErrDuplicateTransaction, tx.ID)
	}
	m.transactions[tx.ID] = tx
	m.txOrder = append(m.txOrder, tx.ID)
	return nil
}

func (m *MemoryLedgerStore) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[id]
	if !ok {
		return models.Transaction{}, storage.ErrTransactionNotFound
	}
	return tx, nil
}

// ListTransactionsByAccount returns records touching number, newest first.
func (m *MemoryLedgerStore) ListTransactionsByAccount(ctx context.Context, number string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Transaction
	for i := len(m.txOrder) - 1; i >= 0; i-- {
		tx := m.transactions[m.txOrder[i]]
		if tx.Involves(number) {
			result = append(result, tx)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MemoryLedgerStore) UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[id]
	if !ok {
		return storage.ErrTransactionNotFound
	}
	tx.Status = status
	tx.UpdatedAt = time.Now().UTC()
	m.transactions[id] = tx
	return nil
}

func (m *MemoryLedgerStore) AccountSummary(ctx context.Context) (models.AccountSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum := models.AccountSummary{TotalBalance: decimal.Zero}
	for _, account := range m.accounts {
		sum.TotalAccounts++
		sum.TotalBalance = sum.TotalBalance.Add(account.Balance)
	}
	return sum, nil
}

func (m *MemoryLedgerStore) TransactionSummary(ctx context.Context) (models.TransactionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum := models.TransactionSummary{TotalAmount: decimal.Zero}
	for _, tx := range m.transactions {
		if tx.Status != models.StatusCompleted {
			continue
		}
		sum.TotalTransactions++
		sum.TotalAmount = sum.TotalAmount.Add(tx.Amount)
	}
	return sum, nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
