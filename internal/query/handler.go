package query

import (
	"context"
	"errors"

	"github.com/example/ec-orders/internal/domain/cart"
	"github.com/example/ec-orders/internal/domain/inventory"
	"github.com/example/ec-orders/internal/domain/order"
)

// ErrForbidden is returned when a user reads an order they do not own.
var ErrForbidden = errors.New("order belongs to another user")

// Handler is the read side of the API. Ownership checks live here: a user
// only sees their own cart and orders, admins see everything.
type Handler struct {
	cartSvc  *cart.Service
	orderSvc *order.Service
	events   order.EventLog
	ledger   inventory.Ledger
}

func NewHandler(cartSvc *cart.Service, orderSvc *order.Service, events order.EventLog, ledger inventory.Ledger) *Handler {
	return &Handler{
		cartSvc:  cartSvc,
		orderSvc: orderSvc,
		events:   events,
		ledger:   ledger,
	}
}

// GetCart returns the user's cart, empty if they have none yet.
func (h *Handler) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	return h.cartSvc.Get(ctx, userID)
}

// GetOrder returns a single order. Non-admins only get their own.
func (h *Handler) GetOrder(ctx context.Context, orderID, userID string, isAdmin bool) (*order.Order, error) {
	o, err := h.orderSvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != userID {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListOrders returns the user's orders, newest first.
func (h *Handler) ListOrders(ctx context.Context, userID string) ([]*order.Order, error) {
	return h.orderSvc.ListByUser(ctx, userID)
}

// ListAllOrders returns every order. Admin only; the caller enforces the role.
func (h *Handler) ListAllOrders(ctx context.Context) ([]*order.Order, error) {
	return h.orderSvc.ListAll(ctx)
}

// OrderHistory returns the append-only status change trail for an order.
func (h *Handler) OrderHistory(ctx context.Context, orderID, userID string, isAdmin bool) ([]*order.StatusChange, error) {
	if _, err := h.GetOrder(ctx, orderID, userID, isAdmin); err != nil {
		return nil, err
	}
	return h.orderSvc.History(ctx, orderID)
}

// OrderEvents returns the audit log for an order.
func (h *Handler) OrderEvents(ctx context.Context, orderID, userID string, isAdmin bool) ([]*order.Event, error) {
	if _, err := h.GetOrder(ctx, orderID, userID, isAdmin); err != nil {
		return nil, err
	}
	return h.events.ListByOrder(ctx, orderID)
}

// CheckoutEvents returns events recorded against a checkout id, for polling a
// checkout that has not produced an order yet. Checkout-keyed events carry the
// initiating user in their metadata; non-admins only see their own.
func (h *Handler) CheckoutEvents(ctx context.Context, checkoutID, userID string, isAdmin bool) ([]*order.Event, error) {
	events, err := h.events.ListByOrder(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		for _, e := range events {
			if owner, ok := e.Metadata["user_id"].(string); ok && owner != userID {
				return nil, ErrForbidden
			}
		}
	}
	return events, nil
}

// AvailableStock returns the tracked stock for a product.
func (h *Handler) AvailableStock(ctx context.Context, productID, variantID string) (int, error) {
	return h.ledger.Available(ctx, productID, variantID)
}
