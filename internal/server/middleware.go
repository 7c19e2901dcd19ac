package server

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/account-ledger/internal/interfaces"
)

const (
	idempotencyHeader = "Idempotency-Key"

	// inFlightTTL bounds how long a crashed request can hold its key.
	inFlightTTL = time.Minute
)

// idempotent runs a request at most once per Idempotency-Key. The key is
// reserved before the handler runs; a concurrent request with the same key
// gets 409 until the first one finishes, then the stored response is replayed.
// Server-side failures release the key so the client can retry.
func (s *Server) idempotent(c *fiber.Ctx) error {
	key := c.Get(idempotencyHeader)
	if key == "" || s.idempotency == nil {
		return c.Next()
	}
	key = c.Path() + ":" + key
	ctx := c.UserContext()

	reserved, err := s.idempotency.Reserve(ctx, key, inFlightTTL)
	if err != nil {
		s.logger.Warn("idempotency reservation failed, serving without replay", zap.String("key", key), zap.Error(err))
		return c.Next()
	}

	if !reserved {
		cached, ok, err := s.idempotency.Get(ctx, key)
		if err != nil {
			s.logger.Error("idempotency lookup failed", zap.String("key", key), zap.Error(err))
			return writeError(c, http.StatusServiceUnavailable, "could not check Idempotency-Key")
		}
		if !ok || cached.InFlight() {
			return writeError(c, http.StatusConflict, "a request with this Idempotency-Key is already in progress")
		}
		s.logger.Info("idempotency hit, replaying response", zap.String("key", key))
		c.Set("X-Idempotency-Hit", "true")
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(cached.Status).Send(cached.Body)
	}

	if err := c.Next(); err != nil {
		s.release(c, key)
		return err
	}

	status := c.Response().StatusCode()
	if status >= fiber.StatusInternalServerError {
		s.release(c, key)
		return nil
	}

	resp := interfaces.CachedResponse{
		Status: status,
		Body:   append([]byte(nil), c.Response().Body()...),
	}
	if err := s.idempotency.Save(ctx, key, resp, s.idempotencyTTL); err != nil {
		s.logger.Error("could not save idempotency key", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (s *Server) release(c *fiber.Ctx, key string) {
	if err := s.idempotency.Release(c.UserContext(), key); err != nil {
		s.logger.Error("could not release idempotency key", zap.String("key", key), zap.Error(err))
	}
}
