package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/ec-orders/internal/domain/order"
)

// MemoryOrderRepository is an in-memory order.Repository for tests and
// local runs.
type MemoryOrderRepository struct {
	mu      sync.RWMutex
	orders  map[string]*order.Order
	byKey   map[string]string // idempotency key -> order id
	history map[string][]*order.StatusChange
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:  make(map[string]*order.Order),
		byKey:   make(map[string]string),
		history: make(map[string][]*order.StatusChange),
	}
}

func (r *MemoryOrderRepository) Create(ctx context.Context, o *order.Order, idempotencyKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idempotencyKey != "" {
		if _, exists := r.byKey[idempotencyKey]; exists {
			return order.ErrDuplicateOrder
		}
		r.byKey[idempotencyKey] = o.ID
	}

	clone := *o
	clone.Items = append([]order.Item(nil), o.Items...)
	r.orders[o.ID] = &clone
	return nil
}

func (r *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, exists := r.orders[id]
	if !exists {
		return nil, order.ErrOrderNotFound
	}
	clone := *o
	clone.Items = append([]order.Item(nil), o.Items...)
	return &clone, nil
}

func (r *MemoryOrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*order.Order, error) {
	r.mu.RLock()
	id, exists := r.byKey[key]
	r.mu.RUnlock()

	if !exists {
		return nil, order.ErrOrderNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryOrderRepository) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*order.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			clone := *o
			clone.Items = append([]order.Item(nil), o.Items...)
			orders = append(orders, &clone)
		}
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (r *MemoryOrderRepository) ListAll(ctx context.Context) ([]*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]*order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		clone := *o
		clone.Items = append([]order.Item(nil), o.Items...)
		orders = append(orders, &clone)
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (r *MemoryOrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, exists := r.orders[id]
	if !exists {
		return order.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryOrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status order.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, exists := r.orders[id]
	if !exists {
		return order.ErrOrderNotFound
	}
	o.PaymentStatus = status
	o.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryOrderRepository) UpdateShippingInfo(ctx context.Context, id string, trackingNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, exists := r.orders[id]
	if !exists {
		return order.ErrOrderNotFound
	}
	now := time.Now()
	o.TrackingNumber = trackingNumber
	o.ShippedAt = &now
	o.UpdatedAt = now
	return nil
}

func (r *MemoryOrderRepository) AppendStatusHistory(ctx context.Context, change *order.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history[change.OrderID] = append(r.history[change.OrderID], change)
	return nil
}

func (r *MemoryOrderRepository) StatusHistory(ctx context.Context, orderID string) ([]*order.StatusChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*order.StatusChange(nil), r.history[orderID]...), nil
}

func sortOrdersNewestFirst(orders []*order.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
