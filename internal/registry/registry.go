// Package registry creates and resolves accounts by their unique number.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/account-ledger/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger/internal/models"
	"github.com/sheikh-saqib/account-ledger/internal/storage"
)

var (
	ErrDuplicateAccount      = errors.New("account number already registered")
	ErrInvalidInitialBalance = errors.New("initial balance below the account floor")
	ErrInvalidAccount        = errors.New("invalid account")
)

// Registry owns the set of live accounts. It hands out copies; the store
// remains the source of truth.
type Registry struct {
	store  interfaces.LedgerStore
	logger *zap.Logger
}

func New(store interfaces.LedgerStore, logger *zap.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// Create registers a new account. Every kind must start at or above its floor.
func (r *Registry) Create(ctx context.Context, kind models.AccountKind, number, holderName string, initialBalance decimal.Decimal) (*models.Account, error) {
	number = strings.TrimSpace(number)
	holderName = strings.TrimSpace(holderName)

	if number == "" {
		return nil, fmt.Errorf("%w: account number is required", ErrInvalidAccount)
	}
	if holderName == "" {
		return nil, fmt.Errorf("%w: holder name is required", ErrInvalidAccount)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccount, models.ErrUnknownKind)
	}
	if !models.HasMoneyScale(initialBalance) {
		return nil, fmt.Errorf("%w: initial balance has more than %d decimal places", ErrInvalidAccount, models.MoneyScale)
	}
	if initialBalance.LessThan(kind.Floor()) {
		return nil, fmt.Errorf("%w: %s account needs at least %s", ErrInvalidInitialBalance, kind, kind.Floor().StringFixed(2))
	}

	_, found, err := r.Find(ctx, number)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, number)
	}

	account := models.Account{
		Number:     number,
		HolderName: holderName,
		Kind:       kind,
		Balance:    initialBalance,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.store.CreateAccount(ctx, account); err != nil {
		// Lost the race against a concurrent Create for the same number.
		if errors.Is(err, storage.ErrDuplicateAccount) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, number)
		}
		return nil, fmt.Errorf("create account %s: %w", number, err)
	}

	r.logger.Info("account created",
		zap.String("account_number", number),
		zap.String("account_type", string(kind)),
		zap.String("balance", initialBalance.StringFixed(2)),
	)
	return &account, nil
}

// Find resolves an account. A missing account is reported through found=false,
// never as an error.
func (r *Registry) Find(ctx context.Context, number string) (*models.Account, bool, error) {
	account, err := r.store.LoadAccount(ctx, number)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load account %s: %w", number, err)
	}
	return &account, true, nil
}

// List returns a point-in-time copy of all accounts in registration order.
func (r *Registry) List(ctx context.Context) ([]models.Account, error) {
	accounts, err := r.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]models.Account, len(accounts))
	copy(out, accounts)
	return out, nil
}
