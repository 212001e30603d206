package catalog

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available for purchase")
)

// Product is the catalog's view of a sellable product or variant.
type Product struct {
	ProductID      string `json:"product_id"`
	VariantID      string `json:"variant_id,omitempty"`
	Name           string `json:"name"`
	VariantName    string `json:"variant_name,omitempty"`
	SKU            string `json:"sku"`
	Price          int64  `json:"price"`
	AvailableStock int    `json:"available_stock"`
	Active         bool   `json:"active"`
}

// Catalog looks up products in the external product service. Checkout treats
// it as a collaborator: lookups drive validation and price capture, never
// stock mutation.
type Catalog interface {
	Lookup(ctx context.Context, productID, variantID string) (*Product, error)
}
