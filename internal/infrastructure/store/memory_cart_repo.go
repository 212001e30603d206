package store

import (
	"context"
	"sync"

	"github.com/example/ec-orders/internal/domain/cart"
)

// MemoryCartRepository is an in-memory cart.Repository for tests and
// local runs.
type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*cart.Cart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]*cart.Cart)}
}

func (r *MemoryCartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.carts[userID]
	if !exists {
		return nil, nil
	}
	clone := *c
	clone.Items = append([]cart.Item(nil), c.Items...)
	return &clone, nil
}

func (r *MemoryCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *c
	clone.Items = append([]cart.Item(nil), c.Items...)
	r.carts[c.UserID] = &clone
	return nil
}

func (r *MemoryCartRepository) Clear(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, userID)
	return nil
}
