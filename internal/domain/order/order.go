package order

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusConfirmed  Status = "confirmed"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentProcessing        PaymentStatus = "processing"
	PaymentPaid              PaymentStatus = "paid"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

var (
	ErrOrderNotFound            = errors.New("order not found")
	ErrEmptyOrder               = errors.New("order must have at least one item")
	ErrInvalidTransition        = errors.New("invalid order status transition")
	ErrInvalidPaymentTransition = errors.New("invalid payment status transition")
	ErrTotalMismatch            = errors.New("total amount does not match components")
	ErrDuplicateOrder           = errors.New("order already exists for idempotency key")
)

// validTransitions defines allowed status transitions. The main chain is
// forward-only with no skipping; cancelled is reachable only before shipment,
// refunded only after.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusRefunded},
	StatusDelivered:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

var validPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:           {PaymentProcessing},
	PaymentProcessing:        {PaymentPaid, PaymentFailed, PaymentRefunded, PaymentPartiallyRefunded},
	PaymentPaid:              {PaymentRefunded, PaymentPartiallyRefunded},
	PaymentFailed:            {PaymentProcessing},
	PaymentRefunded:          {},
	PaymentPartiallyRefunded: {PaymentRefunded},
}

// Address is a point-in-time copy of shipping or billing details. Orders keep
// their own copy so later address-book edits never rewrite order history.
type Address struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Company    string `json:"company,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Item is a frozen snapshot of a product at checkout time. Catalog mutations
// after order creation must not change it.
type Item struct {
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id,omitempty"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name,omitempty"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	TotalPrice  int64  `json:"total_price"`
}

type Order struct {
	ID             string        `json:"id"`
	OrderNumber    string        `json:"order_number"`
	UserID         string        `json:"user_id"`
	Status         Status        `json:"status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	Items          []Item        `json:"items"`
	Shipping       Address       `json:"shipping_address"`
	Billing        Address       `json:"billing_address"`
	Subtotal       int64         `json:"subtotal"`
	TaxAmount      int64         `json:"tax_amount"`
	ShippingAmount int64         `json:"shipping_amount"`
	DiscountAmount int64         `json:"discount_amount"`
	TotalAmount    int64         `json:"total_amount"`
	Notes          string        `json:"notes,omitempty"`
	TrackingNumber string        `json:"tracking_number,omitempty"`
	ShippedAt      *time.Time    `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time    `json:"delivered_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// StatusChange is one append-only history entry. Entries are never mutated
// or deleted.
type StatusChange struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	ChangedBy  string    `json:"changed_by"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CanTransitionTo checks if the order can move to the target status.
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// CanBeCancelled reports whether a user-initiated cancel is still accepted.
func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case StatusPending, StatusProcessing, StatusConfirmed:
		return true
	}
	return false
}

// CanPaymentTransitionTo checks if the payment status can move to target.
func (o *Order) CanPaymentTransitionTo(target PaymentStatus) bool {
	allowed, exists := validPaymentTransitions[o.PaymentStatus]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

func (o *Order) transitionError(target Status) error {
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, o.Status, target)
}

// TotalItems returns the summed quantity across all items.
func (o *Order) TotalItems() int {
	var n int
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// ValidateTotals checks the pricing invariant:
// total = subtotal + tax + shipping - discount.
func (o *Order) ValidateTotals() error {
	if o.TotalAmount != o.Subtotal+o.TaxAmount+o.ShippingAmount-o.DiscountAmount {
		return ErrTotalMismatch
	}
	return nil
}

// NewOrderNumber generates a human-facing order number from the current
// timestamp plus a random component.
func NewOrderNumber() string {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	if len(timestamp) > 6 {
		timestamp = timestamp[len(timestamp)-6:]
	}
	return fmt.Sprintf("ORD-%s%03d", timestamp, 100+rand.Intn(900))
}
