package order

import "context"

// Repository persists orders, their items and their status history. Order owns
// items and history: implementations must cascade explicitly on create and
// never expose a way to mutate history entries.
type Repository interface {
	// Create persists a new order with its items. Returns ErrDuplicateOrder
	// if an order already exists for the same idempotency key.
	Create(ctx context.Context, o *Order, idempotencyKey string) error

	GetByID(ctx context.Context, id string) (*Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)

	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error
	UpdateShippingInfo(ctx context.Context, id string, trackingNumber string) error

	AppendStatusHistory(ctx context.Context, change *StatusChange) error
	StatusHistory(ctx context.Context, orderID string) ([]*StatusChange, error)
}
