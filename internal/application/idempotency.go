package application

import (
	"context"
	"strings"
)

// IdempotencyStore deduplicates client retries of mutating invoice calls.
type IdempotencyStore interface {
	// TryReserve claims key and reports false when it is already held.
	TryReserve(ctx context.Context, key string) (bool, error)
	// Release drops a claim so a failed request can be retried with the same key.
	Release(ctx context.Context, key string) error
}

const scopeInvoiceCreate = "invoice:create"

func idempotencyKey(scope, clientKey string) string {
	return scope + ":" + strings.TrimSpace(clientKey)
}

// reserve claims clientKey within scope. The returned release func is a no-op
// when no key was given.
func reserve(ctx context.Context, store IdempotencyStore, scope string, clientKey *string) (release func(), err error) {
	if clientKey == nil || strings.TrimSpace(*clientKey) == "" {
		return func() {}, nil
	}
	key := idempotencyKey(scope, *clientKey)
	ok, err := store.TryReserve(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return func() { _ = store.Release(ctx, key) }, nil
}

// NoopIdempotency accepts every key. Used when IDEMPOTENCY_BACKEND is not redis.
type NoopIdempotency struct{}

func (NoopIdempotency) TryReserve(context.Context, string) (bool, error) { return true, nil }
func (NoopIdempotency) Release(context.Context, string) error            { return nil }

// NoopUoW runs fn directly; the in-memory stores have no transactions.
type NoopUoW struct{}

func (NoopUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
