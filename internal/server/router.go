package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/account-ledger/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger/internal/ledger"
	"github.com/sheikh-saqib/account-ledger/internal/registry"
)

// Server exposes the ledger over HTTP.
type Server struct {
	ledger   *ledger.Ledger
	registry *registry.Registry
	logger   *zap.Logger

	idempotency    interfaces.IdempotencyStore // nil disables replay
	idempotencyTTL time.Duration
}

type Option func(*Server)

// WithIdempotency replays cached responses for repeated Idempotency-Key headers.
func WithIdempotency(store interfaces.IdempotencyStore, ttl time.Duration) Option {
	return func(s *Server) {
		s.idempotency = store
		s.idempotencyTTL = ttl
	}
}

func NewServer(l *ledger.Ledger, reg *registry.Registry, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{ledger: l, registry: reg, logger: logger, idempotencyTTL: 24 * time.Hour}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// App builds the fiber application with every route registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/v1")

	api.Post("/accounts", s.createAccount)
	api.Get("/accounts", s.listAccounts)
	api.Get("/accounts/:number", s.getAccount)
	api.Get("/accounts/:number/transactions", s.accountHistory)

	api.Post("/deposits", s.idempotent, s.deposit)
	api.Post("/withdrawals", s.idempotent, s.withdraw)
	api.Post("/transfers", s.idempotent, s.transfer)

	api.Get("/transactions/:id", s.getTransaction)
	api.Post("/transactions/:id/cancel", s.cancelTransaction)

	api.Get("/summary", s.summary)

	return app
}
