package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-orders/internal/checkout"
	"github.com/example/ec-orders/internal/domain/cart"
	"github.com/example/ec-orders/internal/domain/catalog"
	"github.com/example/ec-orders/internal/domain/inventory"
	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/infrastructure/cache"
	"github.com/example/ec-orders/internal/infrastructure/store"
)

type capturedQueue struct {
	tasks []checkout.Task
}

func (q *capturedQueue) Publish(ctx context.Context, key string, payload any) error {
	q.tasks = append(q.tasks, payload.(checkout.Task))
	return nil
}

type commandEnv struct {
	handler  *Handler
	orderSvc *order.Service
	carts    *cart.Service
	ledger   inventory.Ledger
	events   *store.MemoryEventLog
	queue    *capturedQueue
	catalog  *catalog.Memory
}

func newCommandEnv() *commandEnv {
	cat := catalog.NewMemory()
	cat.Put(&catalog.Product{ProductID: "prod-a", Name: "Widget", SKU: "SKU-A", Price: 2500, Active: true})

	orderSvc := order.NewService(store.NewMemoryOrderRepository())
	carts := cart.NewService(store.NewMemoryCartRepository(), cat)
	ledger := inventory.NewMemoryLedger()
	events := store.NewMemoryEventLog(nil)
	queue := &capturedQueue{}
	checkoutSvc := checkout.NewService(carts, cache.NewMemoryIdempotencyStore(), queue)

	return &commandEnv{
		handler:  NewHandler(carts, checkoutSvc, orderSvc, ledger, events, queue),
		orderSvc: orderSvc,
		carts:    carts,
		ledger:   ledger,
		events:   events,
		queue:    queue,
		catalog:  cat,
	}
}

func (env *commandEnv) createOrder(t *testing.T, userID string) *order.Order {
	t.Helper()
	o, err := env.orderSvc.Create(context.Background(), &order.Order{
		UserID: userID,
		Items: []order.Item{
			{ProductID: "prod-a", ProductName: "Widget", SKU: "SKU-A", Quantity: 2, UnitPrice: 2500, TotalPrice: 5000},
		},
		Subtotal:    5000,
		TotalAmount: 5000,
	}, "")
	require.NoError(t, err)
	return o
}

// ============================================
// Cart Commands
// ============================================

func TestHandler_CartCommands(t *testing.T) {
	env := newCommandEnv()
	ctx := context.Background()

	c, err := env.handler.AddToCart(ctx, AddToCart{UserID: "user-1", ProductID: "prod-a", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(2500), c.Items[0].UnitPrice)

	c, err = env.handler.UpdateCartItem(ctx, UpdateCartItem{UserID: "user-1", ProductID: "prod-a", Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, c.Items[0].Quantity)

	c, err = env.handler.RemoveFromCart(ctx, RemoveFromCart{UserID: "user-1", ProductID: "prod-a"})
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestHandler_Checkout(t *testing.T) {
	env := newCommandEnv()
	ctx := context.Background()

	_, err := env.handler.AddToCart(ctx, AddToCart{UserID: "user-1", ProductID: "prod-a", Quantity: 1})
	require.NoError(t, err)

	checkoutID, err := env.handler.Checkout(ctx, Checkout{UserID: "user-1", IdempotencyKey: "key-1"})

	require.NoError(t, err)
	assert.NotEmpty(t, checkoutID)
	require.Len(t, env.queue.tasks, 1)
	assert.Equal(t, checkout.StepValidate, env.queue.tasks[0].Step)
}

// ============================================
// Cancel
// ============================================

func TestHandler_CancelOrder_ByOwner(t *testing.T) {
	env := newCommandEnv()
	ctx := context.Background()
	o := env.createOrder(t, "user-1")

	cancelled, err := env.handler.CancelOrder(ctx, CancelOrder{OrderID: o.ID, UserID: "user-1", Reason: "changed my mind"})

	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)

	has, err := env.events.HasEvent(ctx, o.ID, order.EventCancelled)
	require.NoError(t, err)
	assert.True(t, has)

	assert.Empty(t, env.queue.tasks, "no release when stock was never deducted")
}

func TestHandler_CancelOrder_ReleasesDeductedStock(t *testing.T) {
	env := newCommandEnv()
	ctx := context.Background()
	o := env.createOrder(t, "user-1")

	_, err := env.events.Record(ctx, o.ID, order.EventStockDeducted, "stock deducted", nil)
	require.NoError(t, err)

	_, err = env.handler.CancelOrder(ctx, CancelOrder{OrderID: o.ID, UserID: "user-1", Reason: "changed my mind"})
	require.NoError(t, err)

	require.Len(t, env.queue.tasks, 1)
	task := env.queue.tasks[0]
	assert.Equal(t, checkout.StepRelease, task.Step)
	assert.Equal(t, o.ID, task.OrderID)
	require.Len(t, task.Items, 1)
	assert.Equal(t, "prod-a", task.Items[0].ProductID)
	assert.Equal(t, 2, task.Items[0].Quantity)
}

func TestHandler_CancelOrder_Forbidden(t *testing.T) {
	env := newCommandEnv()
	ctx := context.Background()
	o := env.createOrder(t, "user-1")

	_, err := env.handler.CancelOrder(ctx, CancelOrder{OrderID: o.ID, UserID: "user-2", Reason: "not mine"})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHandler_CancelOrder_AdminOverride(t *testing.T) {
	env := newCommandEnv()
	ctx := context.Background()
	o := env.createOrder(t, "user-1")

	cancelled, err := env.handler.CancelOrder(ctx, CancelOrder{OrderID: o.ID, UserID: "admin-1", IsAdmin: true, Reason: "fraud"})

	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
}

func TestHandler_CancelOrder_AfterShipment(t *testing.T) {
	env := newCommandEnv()
	ctx := context.Background()
	o := env.createOrder(t, "user-1")

	_, err := env.orderSvc.Transition(ctx, o.ID, order.StatusProcessing, "system", "")
	require.NoError(t, err)
	_, err = env.orderSvc.Transition(ctx, o.ID, order.StatusConfirmed, "system", "")
	require.NoError(t, err)
	_, err = env.orderSvc.Ship(ctx, o.ID, "admin-1", "TRACK-1")
	require.NoError(t, err)

	_, err = env.handler.CancelOrder(ctx, CancelOrder{OrderID: o.ID, UserID: "user-1", Reason: "too late"})

	assert.ErrorIs(t, err, order.ErrInvalidTransition)
}

// ============================================
// Fulfillment and Payments
// ============================================

func TestHandler_ShipAndDeliver(t *testing.T) {
	env := newCommandEnv()
	ctx := context.Background()
	o := env.createOrder(t, "user-1")

	_, err := env.orderSvc.Transition(ctx, o.ID, order.StatusProcessing, "system", "")
	require.NoError(t, err)
	_, err = env.orderSvc.Transition(ctx, o.ID, order.StatusConfirmed, "system", "")
	require.NoError(t, err)

	shipped, err := env.handler.ShipOrder(ctx, ShipOrder{OrderID: o.ID, Actor: "admin-1", TrackingNumber: "TRACK-9"})
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, shipped.Status)

	delivered, err := env.handler.DeliverOrder(ctx, DeliverOrder{OrderID: o.ID, Actor: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, delivered.Status)
}

func TestHandler_MarkPayment_RecordsEvent(t *testing.T) {
	env := newCommandEnv()
	ctx := context.Background()
	o := env.createOrder(t, "user-1")

	_, err := env.handler.MarkPayment(ctx, MarkPayment{OrderID: o.ID, Status: order.PaymentProcessing})
	require.NoError(t, err)

	updated, err := env.handler.MarkPayment(ctx, MarkPayment{OrderID: o.ID, Status: order.PaymentPaid})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, updated.PaymentStatus)

	has, err := env.events.HasEvent(ctx, o.ID, order.EventPaymentReceived)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestHandler_RefundOrder_RecordsEvent(t *testing.T) {
	env := newCommandEnv()
	ctx := context.Background()
	o := env.createOrder(t, "user-1")

	for _, status := range []order.Status{order.StatusProcessing, order.StatusConfirmed} {
		_, err := env.orderSvc.Transition(ctx, o.ID, status, "system", "")
		require.NoError(t, err)
	}
	_, err := env.handler.MarkPayment(ctx, MarkPayment{OrderID: o.ID, Status: order.PaymentProcessing})
	require.NoError(t, err)
	_, err = env.handler.MarkPayment(ctx, MarkPayment{OrderID: o.ID, Status: order.PaymentPaid})
	require.NoError(t, err)

	refunded, err := env.handler.RefundOrder(ctx, RefundOrder{OrderID: o.ID, Actor: "admin-1", Reason: "defective"})

	require.NoError(t, err)
	assert.Equal(t, order.StatusRefunded, refunded.Status)
	assert.Equal(t, order.PaymentRefunded, refunded.PaymentStatus)

	has, err := env.events.HasEvent(ctx, o.ID, order.EventRefunded)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestHandler_AddStock(t *testing.T) {
	env := newCommandEnv()
	ctx := context.Background()

	require.NoError(t, env.handler.AddStock(ctx, AddStock{ProductID: "prod-a", Quantity: 10}))

	available, err := env.ledger.Available(ctx, "prod-a", "")
	require.NoError(t, err)
	assert.Equal(t, 10, available)
}
