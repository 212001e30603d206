package cart

import (
	"context"
	"time"
)

// Repository persists carts keyed by user.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, userID string) error
}

// PriceSource resolves the current unit price for a product/variant. The cart
// captures this price at add time.
type PriceSource interface {
	Price(ctx context.Context, productID, variantID string) (int64, error)
}

type Service struct {
	repo   Repository
	prices PriceSource
}

func NewService(repo Repository, prices PriceSource) *Service {
	return &Service{repo: repo, prices: prices}
}

func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &Cart{ID: CartID(userID), UserID: userID, CreatedAt: time.Now()}
	}
	return c, nil
}

// AddItem adds quantity of a product to the cart, merging with an existing
// line for the same product/variant.
func (s *Service) AddItem(ctx context.Context, userID, productID, variantID string, quantity int) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	price, err := s.prices.Price(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if i := c.find(productID, variantID); i >= 0 {
		c.Items[i].Quantity += quantity
		c.Items[i].UnitPrice = price
	} else {
		c.Items = append(c.Items, Item{
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
			UnitPrice: price,
			AddedAt:   now,
		})
	}
	c.UpdatedAt = now

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateItem sets the quantity of an existing line. Quantity zero removes
// the line.
func (s *Service) UpdateItem(ctx context.Context, userID, productID, variantID string, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID, variantID)
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := c.find(productID, variantID)
	if i < 0 {
		return nil, ErrItemNotFound
	}
	c.Items[i].Quantity = quantity
	c.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID, variantID string) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := c.find(productID, variantID)
	if i < 0 {
		return nil, ErrItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}

// Snapshot returns the cart contents for checkout. Fails on an empty cart.
func (s *Service) Snapshot(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}
	return c, nil
}
