package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	carts map[string]*Cart
}

func newMockRepository() *mockRepository {
	return &mockRepository{carts: make(map[string]*Cart)}
}

func (m *mockRepository) Get(ctx context.Context, userID string) (*Cart, error) {
	c, exists := m.carts[userID]
	if !exists {
		return nil, nil
	}
	clone := *c
	clone.Items = append([]Item(nil), c.Items...)
	return &clone, nil
}

func (m *mockRepository) Save(ctx context.Context, c *Cart) error {
	clone := *c
	clone.Items = append([]Item(nil), c.Items...)
	m.carts[c.UserID] = &clone
	return nil
}

func (m *mockRepository) Clear(ctx context.Context, userID string) error {
	delete(m.carts, userID)
	return nil
}

// staticPrices returns a fixed price for every product.
type staticPrices map[string]int64

func (p staticPrices) Price(ctx context.Context, productID, variantID string) (int64, error) {
	price, exists := p[productID]
	if !exists {
		return 0, ErrInvalidProduct
	}
	return price, nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	prices := staticPrices{"p1": 1000, "p2": 2500}
	return NewService(repo, prices), repo
}

func TestService_Get_EmptyCart(t *testing.T) {
	service, _ := newTestService()

	c, err := service.Get(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "cart-user-1", c.ID)
	assert.Equal(t, "user-1", c.UserID)
	assert.Empty(t, c.Items)
	assert.Equal(t, int64(0), c.Subtotal())
}

func TestService_AddItem(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	c, err := service.AddItem(ctx, "user-1", "p1", "", 2)

	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, int64(1000), c.Items[0].UnitPrice)
	assert.Equal(t, int64(2000), c.Subtotal())
}

func TestService_AddItem_MergesSameProduct(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.AddItem(ctx, "user-1", "p1", "", 2)
	require.NoError(t, err)
	c, err := service.AddItem(ctx, "user-1", "p1", "", 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestService_AddItem_VariantsAreSeparateLines(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.AddItem(ctx, "user-1", "p1", "v1", 1)
	require.NoError(t, err)
	c, err := service.AddItem(ctx, "user-1", "p1", "v2", 1)
	require.NoError(t, err)

	assert.Len(t, c.Items, 2)
}

func TestService_AddItem_Invalid(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.AddItem(ctx, "user-1", "", "", 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = service.AddItem(ctx, "user-1", "p1", "", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = service.AddItem(ctx, "user-1", "p1", "", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = service.AddItem(ctx, "user-1", "unknown", "", 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestService_UpdateItem(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.AddItem(ctx, "user-1", "p1", "", 2)
	require.NoError(t, err)

	c, err := service.UpdateItem(ctx, "user-1", "p1", "", 7)

	require.NoError(t, err)
	assert.Equal(t, 7, c.Items[0].Quantity)
}

func TestService_UpdateItem_ZeroRemovesLine(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.AddItem(ctx, "user-1", "p1", "", 2)
	require.NoError(t, err)

	c, err := service.UpdateItem(ctx, "user-1", "p1", "", 0)

	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestService_UpdateItem_NotInCart(t *testing.T) {
	service, _ := newTestService()

	_, err := service.UpdateItem(context.Background(), "user-1", "p1", "", 3)

	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestService_RemoveItem(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.AddItem(ctx, "user-1", "p1", "", 1)
	require.NoError(t, err)
	_, err = service.AddItem(ctx, "user-1", "p2", "", 1)
	require.NoError(t, err)

	c, err := service.RemoveItem(ctx, "user-1", "p1", "")

	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p2", c.Items[0].ProductID)
}

func TestService_Clear(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	_, err := service.AddItem(ctx, "user-1", "p1", "", 1)
	require.NoError(t, err)

	require.NoError(t, service.Clear(ctx, "user-1"))
	assert.Empty(t, repo.carts)
}

func TestService_Snapshot_EmptyCart(t *testing.T) {
	service, _ := newTestService()

	_, err := service.Snapshot(context.Background(), "user-1")

	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestService_Snapshot_PreservesInsertionOrder(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.AddItem(ctx, "user-1", "p2", "", 1)
	require.NoError(t, err)
	_, err = service.AddItem(ctx, "user-1", "p1", "", 1)
	require.NoError(t, err)

	c, err := service.Snapshot(ctx, "user-1")

	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, "p2", c.Items[0].ProductID)
	assert.Equal(t, "p1", c.Items[1].ProductID)
}
