package command

import (
	"context"
	"errors"

	"github.com/example/ec-orders/internal/checkout"
	"github.com/example/ec-orders/internal/domain/cart"
	"github.com/example/ec-orders/internal/domain/inventory"
	"github.com/example/ec-orders/internal/domain/order"
)

// ErrForbidden is returned when a user addresses an order they do not own.
var ErrForbidden = errors.New("order belongs to another user")

// Handler is the write side of the API: cart edits, checkout submission and
// order lifecycle commands.
type Handler struct {
	cartSvc     *cart.Service
	checkoutSvc *checkout.Service
	orderSvc    *order.Service
	ledger      inventory.Ledger
	events      order.EventLog
	queue       checkout.Queue
}

func NewHandler(
	cartSvc *cart.Service,
	checkoutSvc *checkout.Service,
	orderSvc *order.Service,
	ledger inventory.Ledger,
	events order.EventLog,
	queue checkout.Queue,
) *Handler {
	return &Handler{
		cartSvc:     cartSvc,
		checkoutSvc: checkoutSvc,
		orderSvc:    orderSvc,
		ledger:      ledger,
		events:      events,
		queue:       queue,
	}
}

// AddToCart adds an item to the user's cart, capturing the current price.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (*cart.Cart, error) {
	return h.cartSvc.AddItem(ctx, cmd.UserID, cmd.ProductID, cmd.VariantID, cmd.Quantity)
}

// UpdateCartItem sets a line's quantity; zero removes the line.
func (h *Handler) UpdateCartItem(ctx context.Context, cmd UpdateCartItem) (*cart.Cart, error) {
	return h.cartSvc.UpdateItem(ctx, cmd.UserID, cmd.ProductID, cmd.VariantID, cmd.Quantity)
}

// RemoveFromCart removes a line from the cart.
func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (*cart.Cart, error) {
	return h.cartSvc.RemoveItem(ctx, cmd.UserID, cmd.ProductID, cmd.VariantID)
}

// ClearCart empties the user's cart.
func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) error {
	return h.cartSvc.Clear(ctx, cmd.UserID)
}

// Checkout enqueues the checkout pipeline and returns the checkout id. The
// order itself is created asynchronously.
func (h *Handler) Checkout(ctx context.Context, cmd Checkout) (string, error) {
	return h.checkoutSvc.Initiate(ctx, cmd.UserID, checkout.Request{
		Shipping:       cmd.Shipping,
		Billing:        cmd.Billing,
		TaxAmount:      cmd.TaxAmount,
		ShippingAmount: cmd.ShippingAmount,
		DiscountAmount: cmd.DiscountAmount,
		Notes:          cmd.Notes,
		IdempotencyKey: cmd.IdempotencyKey,
	})
}

// CancelOrder cancels the order and, when stock was already deducted for it,
// enqueues a release task to give the stock back.
func (h *Handler) CancelOrder(ctx context.Context, cmd CancelOrder) (*order.Order, error) {
	o, err := h.orderSvc.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !cmd.IsAdmin && o.UserID != cmd.UserID {
		return nil, ErrForbidden
	}

	cancelled, err := h.orderSvc.Cancel(ctx, cmd.OrderID, cmd.UserID, cmd.Reason)
	if err != nil {
		return nil, err
	}

	if _, err := h.events.Record(ctx, cmd.OrderID, order.EventCancelled, "order cancelled",
		map[string]any{"reason": cmd.Reason}); err != nil {
		return nil, err
	}

	deducted, err := h.events.HasEvent(ctx, cmd.OrderID, order.EventStockDeducted)
	if err != nil {
		return nil, err
	}
	if deducted {
		items := make([]checkout.TaskItem, 0, len(o.Items))
		for _, item := range o.Items {
			items = append(items, checkout.TaskItem{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
			})
		}
		task := checkout.Task{
			CheckoutID: cmd.OrderID,
			Step:       checkout.StepRelease,
			Attempt:    1,
			UserID:     o.UserID,
			OrderID:    cmd.OrderID,
			Items:      items,
		}
		if err := h.queue.Publish(ctx, cmd.OrderID, task); err != nil {
			return nil, err
		}
	}

	return cancelled, nil
}

// ShipOrder records the tracking number and moves the order to shipped.
func (h *Handler) ShipOrder(ctx context.Context, cmd ShipOrder) (*order.Order, error) {
	return h.orderSvc.Ship(ctx, cmd.OrderID, cmd.Actor, cmd.TrackingNumber)
}

// DeliverOrder marks a shipped order as delivered.
func (h *Handler) DeliverOrder(ctx context.Context, cmd DeliverOrder) (*order.Order, error) {
	return h.orderSvc.Deliver(ctx, cmd.OrderID, cmd.Actor)
}

// RefundOrder refunds the order and its payment, then releases stock the
// same way a cancel does.
func (h *Handler) RefundOrder(ctx context.Context, cmd RefundOrder) (*order.Order, error) {
	o, err := h.orderSvc.Refund(ctx, cmd.OrderID, cmd.Actor, cmd.Reason)
	if err != nil {
		return nil, err
	}

	_, err = h.events.Record(ctx, cmd.OrderID, order.EventRefunded, "order refunded",
		map[string]any{"reason": cmd.Reason})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// MarkPayment moves the payment status and records the matching event.
func (h *Handler) MarkPayment(ctx context.Context, cmd MarkPayment) (*order.Order, error) {
	o, err := h.orderSvc.MarkPayment(ctx, cmd.OrderID, cmd.Status)
	if err != nil {
		return nil, err
	}

	switch cmd.Status {
	case order.PaymentPaid:
		_, err = h.events.Record(ctx, cmd.OrderID, order.EventPaymentReceived, "payment received", nil)
	case order.PaymentFailed:
		_, err = h.events.Record(ctx, cmd.OrderID, order.EventPaymentFailed, "payment failed", nil)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// AddStock increases the tracked stock for a product.
func (h *Handler) AddStock(ctx context.Context, cmd AddStock) error {
	return h.ledger.AddStock(ctx, cmd.ProductID, cmd.VariantID, cmd.Quantity)
}
