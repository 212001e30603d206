package order

import (
	"context"
	"time"
)

// Pipeline and lifecycle event types recorded in the event log.
const (
	EventCreated              = "created"
	EventStockInsufficient    = "stock_insufficient"
	EventStockDeducted        = "stock_deducted"
	EventStockDeductionFailed = "stock_deduction_failed"
	EventStockReleased        = "stock_released"
	EventOrderConfirmed       = "order_confirmed"
	EventCheckoutFailed       = "checkout_failed"
	EventPaymentReceived      = "payment_received"
	EventPaymentFailed        = "payment_failed"
	EventCancelled            = "cancelled"
	EventConfirmationSent     = "confirmation_sent"
	EventRefunded             = "refunded"
)

// Event is one append-only audit record. Before an order exists (a checkout
// that fails validation) events are keyed by the checkout id instead.
type Event struct {
	ID        string         `json:"id"`
	OrderID   string         `json:"order_id"`
	EventType string         `json:"event_type"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// EventLog is the append-only pipeline/audit log. There is deliberately no
// mutation or deletion API; retention is an external concern. Record also
// publishes the event for downstream consumers (notifier, subscriptions).
type EventLog interface {
	Record(ctx context.Context, orderID, eventType, message string, metadata map[string]any) (*Event, error)
	ListByOrder(ctx context.Context, orderID string) ([]*Event, error)

	// HasEvent reports whether an event of the given type was already
	// recorded for the order. Pipeline steps use it as their
	// already-processed marker.
	HasEvent(ctx context.Context, orderID, eventType string) (bool, error)
}
