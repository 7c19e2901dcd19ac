package server

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/account-ledger/internal/ledger"
	"github.com/sheikh-saqib/account-ledger/internal/models"
	"github.com/sheikh-saqib/account-ledger/internal/registry"
)

const actorHeader = "X-Actor"

type createAccountRequest struct {
	AccountNumber  string          `json:"account_number"`
	HolderName     string          `json:"holder_name"`
	AccountType    string          `json:"account_type"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// movementRequest is the body of deposits and withdrawals.
type movementRequest struct {
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

type transferRequest struct {
	FromAccount string          `json:"from_account"`
	ToAccount   string          `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (s *Server) createAccount(c *fiber.Ctx) error {
	var req createAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request body")
	}

	kind, err := models.ParseAccountKind(req.AccountType)
	if err != nil {
		return writeError(c, http.StatusBadRequest, err.Error())
	}

	account, err := s.registry.Create(c.UserContext(), kind, req.AccountNumber, req.HolderName, req.InitialBalance)
	switch {
	case err == nil:
		return c.Status(http.StatusCreated).JSON(newAccountView(account))
	case errors.Is(err, registry.ErrDuplicateAccount):
		return writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, registry.ErrInvalidInitialBalance):
		return writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, registry.ErrInvalidAccount):
		return writeError(c, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("create account failed", zap.String("account_number", req.AccountNumber), zap.Error(err))
		return writeError(c, http.StatusServiceUnavailable, "could not create account")
	}
}

func (s *Server) listAccounts(c *fiber.Ctx) error {
	accounts, err := s.registry.List(c.UserContext())
	if err != nil {
		s.logger.Error("list accounts failed", zap.Error(err))
		return writeError(c, http.StatusServiceUnavailable, "could not list accounts")
	}

	views := make([]*accountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, newAccountView(&accounts[i]))
	}
	return c.JSON(views)
}

func (s *Server) getAccount(c *fiber.Ctx) error {
	account, found, err := s.registry.Find(c.UserContext(), c.Params("number"))
	if err != nil {
		s.logger.Error("find account failed", zap.String("account_number", c.Params("number")), zap.Error(err))
		return writeError(c, http.StatusServiceUnavailable, "could not load account")
	}
	if !found {
		return writeError(c, http.StatusNotFound, "account not found")
	}
	return c.JSON(newAccountView(account))
}

func (s *Server) accountHistory(c *fiber.Ctx) error {
	txs, err := s.ledger.History(c.UserContext(), c.Params("number"))
	switch {
	case err == nil:
		if txs == nil {
			txs = []models.Transaction{}
		}
		return c.JSON(fiber.Map{"transactions": txs})
	case errors.Is(err, ledger.ErrAccountNotFound):
		return writeError(c, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("account history failed", zap.String("account_number", c.Params("number")), zap.Error(err))
		return writeError(c, http.StatusServiceUnavailable, "could not load history")
	}
}

func (s *Server) deposit(c *fiber.Ctx) error {
	var req movementRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request body")
	}

	res := s.ledger.Deposit(c.UserContext(), ledger.DepositRequest{
		Account:     req.AccountNumber,
		Amount:      req.Amount,
		Description: req.Description,
		Actor:       c.Get(actorHeader),
	})
	return writeResult(c, res)
}

func (s *Server) withdraw(c *fiber.Ctx) error {
	var req movementRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request body")
	}

	res := s.ledger.Withdraw(c.UserContext(), ledger.WithdrawRequest{
		Account:     req.AccountNumber,
		Amount:      req.Amount,
		Description: req.Description,
		Actor:       c.Get(actorHeader),
	})
	return writeResult(c, res)
}

func (s *Server) transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request body")
	}

	res := s.ledger.Transfer(c.UserContext(), ledger.TransferRequest{
		From:        req.FromAccount,
		To:          req.ToAccount,
		Amount:      req.Amount,
		Description: req.Description,
		Actor:       c.Get(actorHeader),
	})
	return writeResult(c, res)
}

func (s *Server) getTransaction(c *fiber.Ctx) error {
	tx, err := s.ledger.Transaction(c.UserContext(), c.Params("id"))
	switch {
	case err == nil:
		return c.JSON(tx)
	case errors.Is(err, ledger.ErrTransactionNotFound):
		return writeError(c, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("get transaction failed", zap.String("transaction_id", c.Params("id")), zap.Error(err))
		return writeError(c, http.StatusServiceUnavailable, "could not load transaction")
	}
}

func (s *Server) cancelTransaction(c *fiber.Ctx) error {
	tx, err := s.ledger.CancelTransaction(c.UserContext(), c.Params("id"))
	switch {
	case err == nil:
		return c.JSON(tx)
	case errors.Is(err, ledger.ErrTransactionNotFound):
		return writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidTransition):
		return writeError(c, http.StatusConflict, err.Error())
	default:
		s.logger.Error("cancel transaction failed", zap.String("transaction_id", c.Params("id")), zap.Error(err))
		return writeError(c, http.StatusServiceUnavailable, "could not cancel transaction")
	}
}

func (s *Server) summary(c *fiber.Ctx) error {
	sum, err := s.ledger.Summary(c.UserContext())
	if err != nil {
		s.logger.Error("summary failed", zap.Error(err))
		return writeError(c, http.StatusServiceUnavailable, "could not build summary")
	}
	return c.JSON(sum)
}
