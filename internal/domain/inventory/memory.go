package inventory

import (
	"context"
	"sync"
)

type stockKey struct {
	productID string
	variantID string
}

// MemoryLedger is a mutex-guarded in-process ledger. Used in tests and local
// runs; production uses the SQL-backed ledger, which pushes the
// compare-and-decrement into the database.
type MemoryLedger struct {
	mu    sync.Mutex
	stock map[stockKey]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{stock: make(map[stockKey]int)}
}

func (l *MemoryLedger) Reserve(ctx context.Context, productID, variantID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	available, ok := l.stock[stockKey{productID, variantID}]
	if !ok {
		return ErrNotTracked
	}
	if available < qty {
		return ErrInsufficientStock
	}
	return nil
}

func (l *MemoryLedger) Deduct(ctx context.Context, productID, variantID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := stockKey{productID, variantID}
	available, ok := l.stock[key]
	if !ok {
		return ErrNotTracked
	}
	if available < qty {
		return ErrInsufficientStock
	}
	l.stock[key] = available - qty
	return nil
}

func (l *MemoryLedger) Release(ctx context.Context, productID, variantID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stock[stockKey{productID, variantID}] += qty
	return nil
}

func (l *MemoryLedger) AddStock(ctx context.Context, productID, variantID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stock[stockKey{productID, variantID}] += qty
	return nil
}

func (l *MemoryLedger) Available(ctx context.Context, productID, variantID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	available, ok := l.stock[stockKey{productID, variantID}]
	if !ok {
		return 0, ErrNotTracked
	}
	return available, nil
}
