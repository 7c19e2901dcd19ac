// Package breaker wraps a LedgerStore with a circuit breaker so a failing
// database turns into fast persistence failures instead of piling up callers.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/account-ledger/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger/internal/models"
	"github.com/sheikh-saqib/account-ledger/internal/storage"
)

// Config controls when the breaker opens and how long it stays open.
type Config struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	HalfOpenRequests    uint32
}

func DefaultConfig() Config {
	return Config{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

type Store struct {
	next interfaces.LedgerStore
	cb   *gobreaker.CircuitBreaker
}

func New(next interfaces.LedgerStore, cfg Config, logger *zap.Logger) *Store {
	settings := gobreaker.Settings{
		Name:        "ledger-store",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// Lookups that miss are answers, not outages.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, storage.ErrAccountNotFound) ||
				errors.Is(err, storage.ErrDuplicateAccount) ||
				errors.Is(err, storage.ErrTransactionNotFound) ||
				errors.Is(err, storage.ErrDuplicateTransaction)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &Store{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// State exposes the breaker state for health reporting.
func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

func (s *Store) run(op string, fn func() (any, error)) (any, error) {
	out, err := s.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: store unavailable: %w", op, err)
	}
	return out, err
}

func (s *Store) exec(op string, fn func() error) error {
	_, err := s.run(op, func() (any, error) { return nil, fn() })
	return err
}

func (s *Store) CreateAccount(ctx context.Context, account models.Account) error {
	return s.exec("create account", func() error { return s.next.CreateAccount(ctx, account) })
}

func (s *Store) LoadAccount(ctx context.Context, number string) (models.Account, error) {
	out, err := s.run("load account", func() (any, error) { return s.next.LoadAccount(ctx, number) })
	if err != nil {
		return models.Account{}, err
	}
	return out.(models.Account), nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	out, err := s.run("list accounts", func() (any, error) { return s.next.ListAccounts(ctx) })
	if err != nil {
		return nil, err
	}
	return out.([]models.Account), nil
}

func (s *Store) SaveAccountBalance(ctx context.Context, number string, balance decimal.Decimal) error {
	return s.exec("save balance", func() error { return s.next.SaveAccountBalance(ctx, number, balance) })
}

func (s *Store) SaveBalances(ctx context.Context, updates []models.BalanceUpdate) error {
	return s.exec("save balances", func() error { return s.next.SaveBalances(ctx, updates) })
}

func (s *Store) SaveTransaction(ctx context.Context, tx models.Transaction) error {
	return s.exec("save transaction", func() error { return s.next.SaveTransaction(ctx, tx) })
}

func (s *Store) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	out, err := s.run("get transaction", func() (any, error) { return s.next.GetTransaction(ctx, id) })
	if err != nil {
		return models.Transaction{}, err
	}
	return out.(models.Transaction), nil
}

func (s *Store) ListTransactionsByAccount(ctx context.Context, number string) ([]models.Transaction, error) {
	out, err := s.run("list transactions", func() (any, error) { return s.next.ListTransactionsByAccount(ctx, number) })
	if err != nil {
		return nil, err
	}
	return out.([]models.Transaction), nil
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	return s.exec("update transaction status", func() error { return s.next.UpdateTransactionStatus(ctx, id, status) })
}

func (s *Store) AccountSummary(ctx context.Context) (models.AccountSummary, error) {
	out, err := s.run("account summary", func() (any, error) { return s.next.AccountSummary(ctx) })
	if err != nil {
		return models.AccountSummary{}, err
	}
	return out.(models.AccountSummary), nil
}

func (s *Store) TransactionSummary(ctx context.Context) (models.TransactionSummary, error) {
	out, err := s.run("transaction summary", func() (any, error) { return s.next.TransactionSummary(ctx) })
	if err != nil {
		return models.TransactionSummary{}, err
	}
	return out.(models.TransactionSummary), nil
}

var _ interfaces.LedgerStore = (*Store)(nil)
