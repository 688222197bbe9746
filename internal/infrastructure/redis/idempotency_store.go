package redisstore

import (
	"context"
	"time"

	"fxledger/internal/application"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces idempotency keys in a shared Redis.
const keyPrefix = "fxledger:idem:"

var _ application.IdempotencyStore = (*Store)(nil)

type Store struct {
	Client *redis.Client
	TTL    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{Client: client, TTL: ttl}
}

func (s *Store) TryReserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.Client.SetNX(ctx, keyPrefix+key, "1", s.TTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Store) Release(ctx context.Context, key string) error {
	return s.Client.Del(ctx, keyPrefix+key).Err()
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}
