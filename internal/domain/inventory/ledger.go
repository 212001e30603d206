package inventory

import (
	"context"
	"errors"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrNotTracked        = errors.New("no ledger entry for product")
)

// Ledger tracks per-(product,variant) stock counts.
//
// Reserve is advisory: a read used to short-circuit obviously doomed checkouts.
// Deduct is the authoritative guard against overselling: it must be an atomic
// compare-and-decrement, safe under concurrent invocation for the same product.
// Release compensates a deduction after a later pipeline step fails.
type Ledger interface {
	Reserve(ctx context.Context, productID, variantID string, qty int) error
	Deduct(ctx context.Context, productID, variantID string, qty int) error
	Release(ctx context.Context, productID, variantID string, qty int) error
	AddStock(ctx context.Context, productID, variantID string, qty int) error
	Available(ctx context.Context, productID, variantID string) (int, error)
}
