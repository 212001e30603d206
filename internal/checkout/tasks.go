package checkout

import (
	"github.com/example/ec-orders/internal/domain/order"
)

// Pipeline steps. A checkout runs validate -> create -> deduct -> confirm;
// release only runs as compensation after a cancel.
const (
	StepValidate = "validate"
	StepCreate   = "create"
	StepDeduct   = "deduct"
	StepConfirm  = "confirm"
	StepRelease  = "release"
)

// TaskItem is one line of the checkout being processed. Identity and quantity
// come from the cart; name, sku and the authoritative price are filled in by
// the validate step.
type TaskItem struct {
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// Task is one unit of pipeline work on the checkout-tasks topic. Tasks carry
// the full checkout context so any worker can pick them up; OrderID is empty
// until the create step has run.
type Task struct {
	CheckoutID     string        `json:"checkout_id"`
	Step           string        `json:"step"`
	Attempt        int           `json:"attempt"`
	UserID         string        `json:"user_id"`
	IdempotencyKey string        `json:"idempotency_key"`
	OrderID        string        `json:"order_id,omitempty"`
	Items          []TaskItem    `json:"items"`
	Shipping       order.Address `json:"shipping_address"`
	Billing        order.Address `json:"billing_address"`
	TaxAmount      int64         `json:"tax_amount"`
	ShippingAmount int64         `json:"shipping_amount"`
	DiscountAmount int64         `json:"discount_amount"`
	Notes          string        `json:"notes,omitempty"`
}

// next returns a copy of the task advanced to the given step at attempt 1.
func (t Task) next(step string) Task {
	t.Step = step
	t.Attempt = 1
	return t
}

// retry returns a copy of the task with the attempt counter bumped.
func (t Task) retry() Task {
	t.Attempt++
	return t
}

// auditID returns the event log key for this task: the order id once one
// exists, the checkout id before that.
func (t Task) auditID() string {
	if t.OrderID != "" {
		return t.OrderID
	}
	return t.CheckoutID
}
