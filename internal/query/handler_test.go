package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-orders/internal/domain/cart"
	"github.com/example/ec-orders/internal/domain/catalog"
	"github.com/example/ec-orders/internal/domain/inventory"
	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/infrastructure/store"
)

type queryEnv struct {
	handler  *Handler
	orderSvc *order.Service
	carts    *cart.Service
	ledger   inventory.Ledger
	events   *store.MemoryEventLog
}

func newQueryEnv() *queryEnv {
	cat := catalog.NewMemory()
	cat.Put(&catalog.Product{ProductID: "prod-a", Name: "Widget", SKU: "SKU-A", Price: 2500, Active: true})

	orderSvc := order.NewService(store.NewMemoryOrderRepository())
	carts := cart.NewService(store.NewMemoryCartRepository(), cat)
	ledger := inventory.NewMemoryLedger()
	events := store.NewMemoryEventLog(nil)

	return &queryEnv{
		handler:  NewHandler(carts, orderSvc, events, ledger),
		orderSvc: orderSvc,
		carts:    carts,
		ledger:   ledger,
		events:   events,
	}
}

func (env *queryEnv) createOrder(t *testing.T, userID string) *order.Order {
	t.Helper()
	o, err := env.orderSvc.Create(context.Background(), &order.Order{
		UserID: userID,
		Items: []order.Item{
			{ProductID: "prod-a", ProductName: "Widget", SKU: "SKU-A", Quantity: 1, UnitPrice: 2500, TotalPrice: 2500},
		},
		Subtotal:    2500,
		TotalAmount: 2500,
	}, "")
	require.NoError(t, err)
	return o
}

func TestHandler_GetCart(t *testing.T) {
	env := newQueryEnv()
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, "user-1", "prod-a", "", 2)
	require.NoError(t, err)

	c, err := env.handler.GetCart(ctx, "user-1")

	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(5000), c.Subtotal())
}

func TestHandler_GetOrder_Ownership(t *testing.T) {
	env := newQueryEnv()
	ctx := context.Background()
	o := env.createOrder(t, "user-1")

	got, err := env.handler.GetOrder(ctx, o.ID, "user-1", false)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = env.handler.GetOrder(ctx, o.ID, "user-2", false)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err = env.handler.GetOrder(ctx, o.ID, "admin-1", true)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestHandler_GetOrder_NotFound(t *testing.T) {
	env := newQueryEnv()

	_, err := env.handler.GetOrder(context.Background(), "missing", "user-1", false)

	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestHandler_ListOrders_ScopedToUser(t *testing.T) {
	env := newQueryEnv()
	ctx := context.Background()
	env.createOrder(t, "user-1")
	env.createOrder(t, "user-1")
	env.createOrder(t, "user-2")

	mine, err := env.handler.ListOrders(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := env.handler.ListAllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHandler_OrderHistory(t *testing.T) {
	env := newQueryEnv()
	ctx := context.Background()
	o := env.createOrder(t, "user-1")

	_, err := env.orderSvc.Transition(ctx, o.ID, order.StatusProcessing, "system", "checkout confirmed")
	require.NoError(t, err)

	history, err := env.handler.OrderHistory(ctx, o.ID, "user-1", false)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, order.StatusProcessing, history[0].ToStatus)

	_, err = env.handler.OrderHistory(ctx, o.ID, "user-2", false)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHandler_OrderEvents(t *testing.T) {
	env := newQueryEnv()
	ctx := context.Background()
	o := env.createOrder(t, "user-1")

	_, err := env.events.Record(ctx, o.ID, order.EventCreated, "order created", nil)
	require.NoError(t, err)

	events, err := env.handler.OrderEvents(ctx, o.ID, "user-1", false)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.EventCreated, events[0].EventType)

	_, err = env.handler.OrderEvents(ctx, o.ID, "user-2", false)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHandler_CheckoutEvents(t *testing.T) {
	env := newQueryEnv()
	ctx := context.Background()

	// Failed checkouts never produce an order; their audit trail is keyed by
	// the checkout id and carries the initiating user in the metadata.
	_, err := env.events.Record(ctx, "chk-1", order.EventStockInsufficient, "insufficient stock",
		map[string]any{"user_id": "user-1"})
	require.NoError(t, err)

	events, err := env.handler.CheckoutEvents(ctx, "chk-1", "user-1", false)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.EventStockInsufficient, events[0].EventType)
}

func TestHandler_CheckoutEvents_OtherUserForbidden(t *testing.T) {
	env := newQueryEnv()
	ctx := context.Background()

	_, err := env.events.Record(ctx, "chk-1", order.EventStockInsufficient, "insufficient stock",
		map[string]any{"user_id": "user-1"})
	require.NoError(t, err)

	events, err := env.handler.CheckoutEvents(ctx, "chk-1", "user-2", false)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, events)

	// Admins read any checkout trail.
	events, err = env.handler.CheckoutEvents(ctx, "chk-1", "admin-1", true)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestHandler_AvailableStock(t *testing.T) {
	env := newQueryEnv()
	ctx := context.Background()

	require.NoError(t, env.ledger.AddStock(ctx, "prod-a", "", 7))

	available, err := env.handler.AvailableStock(ctx, "prod-a", "")
	require.NoError(t, err)
	assert.Equal(t, 7, available)

	_, err = env.handler.AvailableStock(ctx, "ghost", "")
	assert.ErrorIs(t, err, inventory.ErrNotTracked)
}
