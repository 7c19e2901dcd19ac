package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind selects the balance rules an account follows
type AccountKind string

const (
	KindSavings AccountKind = "SAVINGS"
	KindCurrent AccountKind = "CURRENT"
)

// MoneyScale is the number of decimal places every stored amount carries.
const MoneyScale = 2

var (
	ErrInvalidAmount = errors.New("amount must be positive with at most two decimal places")
	ErrUnknownKind   = errors.New("unknown account kind")
)

// HasMoneyScale reports whether d fits in MoneyScale decimal places.
func HasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// CheckAmount validates an amount to move: positive and whole cents.
func CheckAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !HasMoneyScale(amount) {
		return ErrInvalidAmount
	}
	return nil
}

// kindRules holds the per-kind constants. Savings keeps a minimum balance,
// Current may run into overdraft down to its floor.
type kindRules struct {
	floor        decimal.Decimal
	interestRate decimal.Decimal // percent per year, informational only
}

var rules = map[AccountKind]kindRules{
	KindSavings: {floor: decimal.NewFromInt(500), interestRate: decimal.RequireFromString("2.5")},
	KindCurrent: {floor: decimal.NewFromInt(-10000), interestRate: decimal.Zero},
}

var hundred = decimal.NewFromInt(100)

// ParseAccountKind accepts the stored/wire representation of a kind
func ParseAccountKind(s string) (AccountKind, error) {
	k := AccountKind(s)
	if _, ok := rules[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Valid reports whether k is a known kind
func (k AccountKind) Valid() bool {
	_, ok := rules[k]
	return ok
}

// Floor is the lowest balance an account of this kind may hold after any operation.
func (k AccountKind) Floor() decimal.Decimal {
	return rules[k].floor
}

// InterestRate returns the nominal annual rate in percent.
func (k AccountKind) InterestRate() decimal.Decimal {
	return rules[k].interestRate
}

// Account represents a bank account and its balance rules
type Account struct {
	Number     string          `json:"account_number"`
	HolderName string          `json:"holder_name"`
	Kind       AccountKind     `json:"account_type"`
	Balance    decimal.Decimal `json:"balance"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Floor returns the floor for the account's kind.
func (a *Account) Floor() decimal.Decimal {
	return a.Kind.Floor()
}

// Deposit credits amount. There is no upper bound.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if err := CheckAmount(amount); err != nil {
		return err
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw debits amount if the resulting balance stays at or above the floor.
// A false return with a nil error means insufficient funds; the balance is
// left untouched in that case.
func (a *Account) Withdraw(amount decimal.Decimal) (bool, error) {
	if err := CheckAmount(amount); err != nil {
		return false, err
	}
	next := a.Balance.Sub(amount)
	if next.LessThan(a.Floor()) {
		return false, nil
	}
	a.Balance = next
	return true, nil
}

// InterestRate returns the nominal annual rate for the account's kind.
func (a *Account) InterestRate() decimal.Decimal {
	return a.Kind.InterestRate()
}

// Interest is the yearly interest on the current balance. It is never applied
// automatically.
func (a *Account) Interest() decimal.Decimal {
	return a.Balance.Mul(a.InterestRate()).Div(hundred).Round(2)
}

// AvailableBalance is how much can still be withdrawn before hitting the floor.
func (a *Account) AvailableBalance() decimal.Decimal {
	return a.Balance.Sub(a.Floor())
}

func (a *Account) InOverdraft() bool {
	return a.Balance.IsNegative()
}
