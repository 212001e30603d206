package cart

import (
	"errors"
	"time"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrItemNotFound    = errors.New("item not in cart")
	ErrEmptyCart       = errors.New("cart is empty")
)

// Item references a product by identity only. The unit price is captured when
// the item is added so the cart renders even if the catalog changes; checkout
// re-validates against the live catalog.
type Item struct {
	ProductID string    `json:"product_id"`
	VariantID string    `json:"variant_id,omitempty"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	AddedAt   time.Time `json:"added_at"`
}

func (i Item) TotalPrice() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Cart holds a user's items in insertion order. One cart per user.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartID returns the cart identifier for a user.
func CartID(userID string) string {
	return "cart-" + userID
}

func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.TotalPrice()
	}
	return total
}

func (c *Cart) TotalItems() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) find(productID, variantID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.VariantID == variantID {
			return i
		}
	}
	return -1
}
