package interfaces

import (
	"context"
	"time"
)

// CachedResponse is a response replayed for a repeated Idempotency-Key.
// A zero Status marks a key whose first request is still running.
type CachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

func (r CachedResponse) InFlight() bool {
	return r.Status == 0
}

type IdempotencyStore interface {
	// Reserve atomically claims key for a request about to run. ok=false
	// means another request already holds the key or stored its response.
	Reserve(ctx context.Context, key string, ttl time.Duration) (ok bool, err error)
	// Get reports ok=false when nothing is stored for key.
	Get(ctx context.Context, key string) (resp CachedResponse, ok bool, err error)
	// Save replaces the reservation with the final response.
	Save(ctx context.Context, key string, resp CachedResponse, ttl time.Duration) error
	// Release drops the reservation so the request can be retried.
	Release(ctx context.Context, key string) error
}
