// Package idempotency caches HTTP responses by Idempotency-Key in Redis.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	interfaces "github.com/sheikh-saqib/account-ledger/internal/interfaces"
)

const keyPrefix = "ledger:idempotency:"

type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (interfaces.CachedResponse, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return interfaces.CachedResponse{}, false, nil
	}
	if err != nil {
		return interfaces.CachedResponse{}, false, fmt.Errorf("get idempotency key: %w", err)
	}

	var resp interfaces.CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return interfaces.CachedResponse{}, false, fmt.Errorf("decode idempotency key: %w", err)
	}
	return resp, true, nil
}

// Reserve stores an in-flight marker with SET NX, so exactly one caller
// wins the key.
func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(interfaces.CachedResponse{})
	if err != nil {
		return false, fmt.Errorf("encode idempotency marker: %w", err)
	}
	ok, err := s.client.SetNX(ctx, keyPrefix+key, raw, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Save overwrites the in-flight marker with the final response.
func (s *RedisStore) Save(ctx context.Context, key string, resp interfaces.CachedResponse, ttl time.Duration) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode idempotency key: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

var _ interfaces.IdempotencyStore = (*RedisStore)(nil)
