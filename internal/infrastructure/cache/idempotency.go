package cache

import (
	"context"
	"time"
)

// IdempotencyStore claims checkout idempotency keys. A claim either succeeds,
// making this request the owner of the key, or returns the checkout id that
// claimed it earlier. The store is a fast-path filter only; the orders table
// unique constraint is the authoritative duplicate guard.
type IdempotencyStore interface {
	// Claim attempts to register checkoutID under key. Returns the existing
	// checkout id and claimed=false when the key was already taken.
	Claim(ctx context.Context, key, checkoutID string, ttl time.Duration) (existing string, claimed bool, err error)
}
