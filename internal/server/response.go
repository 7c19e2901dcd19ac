package server

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/account-ledger/internal/ledger"
	"github.com/sheikh-saqib/account-ledger/internal/models"
)

// accountView adds the derived balance figures to an account.
type accountView struct {
	models.Account
	Floor            decimal.Decimal `json:"floor"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	Interest         decimal.Decimal `json:"interest"`
	InOverdraft      bool            `json:"in_overdraft"`
}

func newAccountView(a *models.Account) *accountView {
	if a == nil {
		return nil
	}
	return &accountView{
		Account:          *a,
		Floor:            a.Floor(),
		AvailableBalance: a.AvailableBalance(),
		InterestRate:     a.InterestRate(),
		Interest:         a.Interest(),
		InOverdraft:      a.InOverdraft(),
	}
}

type operationResponse struct {
	Outcome     ledger.Outcome      `json:"outcome"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
	From        *accountView        `json:"from,omitempty"`
	To          *accountView        `json:"to,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// outcomeStatus maps a ledger outcome to its HTTP status.
func outcomeStatus(o ledger.Outcome) int {
	switch o {
	case ledger.OutcomeCompleted:
		return http.StatusCreated
	case ledger.OutcomeUnrecorded:
		return http.StatusAccepted
	case ledger.OutcomeValidationError:
		return http.StatusBadRequest
	case ledger.OutcomeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case ledger.OutcomeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func writeResult(c *fiber.Ctx, res ledger.Result) error {
	body := operationResponse{
		Outcome:     res.Outcome,
		Transaction: res.Transaction,
		From:        newAccountView(res.From),
		To:          newAccountView(res.To),
	}
	if res.Err != nil {
		body.Error = res.Err.Error()
	}
	return c.Status(outcomeStatus(res.Outcome)).JSON(body)
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
