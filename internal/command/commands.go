package command

import "github.com/example/ec-orders/internal/domain/order"

// Cart Commands
type AddToCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItem struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
}

type ClearCart struct {
	UserID string `json:"user_id"`
}

// Checkout Commands
type Checkout struct {
	UserID         string        `json:"user_id"`
	Shipping       order.Address `json:"shipping_address"`
	Billing        order.Address `json:"billing_address"`
	TaxAmount      int64         `json:"tax_amount"`
	ShippingAmount int64         `json:"shipping_amount"`
	DiscountAmount int64         `json:"discount_amount"`
	Notes          string        `json:"notes"`
	IdempotencyKey string        `json:"idempotency_key"`
}

// Order Commands
type CancelOrder struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"-"`
	Reason  string `json:"reason"`
}

type ShipOrder struct {
	OrderID        string `json:"order_id"`
	Actor          string `json:"-"`
	TrackingNumber string `json:"tracking_number"`
}

type DeliverOrder struct {
	OrderID string `json:"order_id"`
	Actor   string `json:"-"`
}

type RefundOrder struct {
	OrderID string `json:"order_id"`
	Actor   string `json:"-"`
	Reason  string `json:"reason"`
}

type MarkPayment struct {
	OrderID string              `json:"order_id"`
	Status  order.PaymentStatus `json:"status"`
}

// Inventory Commands
type AddStock struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}
