package catalog

import (
	"context"
	"sync"
)

// Memory is an in-process catalog for tests and local runs.
type Memory struct {
	mu       sync.RWMutex
	products map[string]*Product // productID|variantID -> product
}

func NewMemory() *Memory {
	return &Memory{products: make(map[string]*Product)}
}

func key(productID, variantID string) string {
	return productID + "|" + variantID
}

func (m *Memory) Put(p *Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[key(p.ProductID, p.VariantID)] = p
}

func (m *Memory) Delete(productID, variantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, key(productID, variantID))
}

func (m *Memory) Lookup(ctx context.Context, productID, variantID string) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[key(productID, variantID)]
	if !ok {
		return nil, ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

// Price implements cart.PriceSource.
func (m *Memory) Price(ctx context.Context, productID, variantID string) (int64, error) {
	p, err := m.Lookup(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	if !p.Active {
		return 0, ErrProductUnavailable
	}
	return p.Price, nil
}
