package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/account-ledger/internal/models"
)

// Outcome tags the result of a ledger operation.
type Outcome string

const (
	// OutcomeCompleted: balances and the transaction record are durable.
	OutcomeCompleted Outcome = "COMPLETED"
	// OutcomeValidationError: input rejected before any state change.
	OutcomeValidationError Outcome = "VALIDATION_ERROR"
	// OutcomeInsufficientFunds: the withdrawal would cross the account floor.
	OutcomeInsufficientFunds Outcome = "INSUFFICIENT_FUNDS"
	// OutcomeNotFound: an account could not be resolved.
	OutcomeNotFound Outcome = "NOT_FOUND"
	// OutcomePersistenceFailure: the store could not be written; no balance changed durably.
	OutcomePersistenceFailure Outcome = "PERSISTENCE_FAILURE"
	// OutcomeUnrecorded: balances are durable but the transaction record is not.
	OutcomeUnrecorded Outcome = "UNRECORDED"
)

// Result is returned by every ledger operation instead of a bare error so
// callers can tell the outcomes apart without string matching.
type Result struct {
	Outcome     Outcome
	Transaction *models.Transaction // set for COMPLETED and UNRECORDED
	From        *models.Account     // source account after the operation, if any
	To          *models.Account     // destination account after the operation, if any
	Err         error               // cause for every outcome except COMPLETED
}

// OK reports whether the balance change took effect durably.
func (r Result) OK() bool {
	return r.Outcome == OutcomeCompleted || r.Outcome == OutcomeUnrecorded
}

type DepositRequest struct {
	Account     string
	Amount      decimal.Decimal
	Description string
	Actor       string
}

type WithdrawRequest struct {
	Account     string
	Amount      decimal.Decimal
	Description string
	Actor       string
}

type TransferRequest struct {
	From        string
	To          string
	Amount      decimal.Decimal
	Description string
	Actor       string
}

// Summary aggregates accounts and completed transactions.
type Summary struct {
	Accounts     models.AccountSummary     `json:"accounts"`
	Transactions models.TransactionSummary `json:"transactions"`
}
