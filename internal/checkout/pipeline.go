package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-orders/internal/domain/cart"
	"github.com/example/ec-orders/internal/domain/catalog"
	"github.com/example/ec-orders/internal/domain/inventory"
	"github.com/example/ec-orders/internal/domain/order"
)

const defaultMaxAttempts = 3

// terminalErrors are failures that retrying cannot fix. Anything not listed
// here is treated as transient and retried with backoff.
var terminalErrors = []error{
	inventory.ErrInsufficientStock,
	inventory.ErrNotTracked,
	inventory.ErrInvalidQuantity,
	catalog.ErrProductNotFound,
	catalog.ErrProductUnavailable,
	order.ErrInvalidTransition,
	order.ErrTotalMismatch,
	order.ErrEmptyOrder,
	cart.ErrEmptyCart,
}

func isTerminal(err error) bool {
	for _, t := range terminalErrors {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// Pipeline executes checkout tasks from the work queue. Handlers are
// idempotent so the at-least-once queue cannot double-apply a step: create
// dedupes on the idempotency key, deduct and confirm check the event log for
// their completion marker before doing work.
type Pipeline struct {
	orders  *order.Service
	ledger  inventory.Ledger
	catalog catalog.Catalog
	carts   *cart.Service
	events  order.EventLog
	queue   Queue

	maxAttempts int
	backoffBase time.Duration
}

func NewPipeline(orders *order.Service, ledger inventory.Ledger, cat catalog.Catalog, carts *cart.Service, events order.EventLog, queue Queue) *Pipeline {
	return &Pipeline{
		orders:      orders,
		ledger:      ledger,
		catalog:     cat,
		carts:       carts,
		events:      events,
		queue:       queue,
		maxAttempts: defaultMaxAttempts,
		backoffBase: time.Second,
	}
}

// HandleTask is the kafka consumer entry point.
func (p *Pipeline) HandleTask(ctx context.Context, key, value []byte) error {
	var task Task
	if err := json.Unmarshal(value, &task); err != nil {
		logger.Error().Err(err).Str("key", string(key)).Msg("dropping undecodable task")
		return nil
	}
	return p.Run(ctx, task)
}

// Run executes one task, dispatching by step. Returned errors are already
// handled (retried or recorded as failed); a non-nil return means only that
// the handling itself failed and the message should surface in consumer logs.
func (p *Pipeline) Run(ctx context.Context, task Task) error {
	if task.Attempt > 1 {
		select {
		case <-time.After(p.backoff(task.Attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var err error
	switch task.Step {
	case StepValidate:
		err = p.validate(ctx, task)
	case StepCreate:
		err = p.create(ctx, task)
	case StepDeduct:
		err = p.deduct(ctx, task)
	case StepConfirm:
		err = p.confirm(ctx, task)
	case StepRelease:
		err = p.release(ctx, task)
	default:
		logger.Error().Str("step", task.Step).Str("checkout_id", task.CheckoutID).
			Msg("dropping task with unknown step")
		return nil
	}

	if err != nil {
		return p.handleStepError(ctx, task, err)
	}
	return nil
}

// backoff doubles per attempt: attempt 2 waits base, attempt 3 waits 2*base.
func (p *Pipeline) backoff(attempt int) time.Duration {
	d := p.backoffBase
	for i := 2; i < attempt; i++ {
		d *= 2
	}
	return d
}

// validate checks every line against the live catalog and available stock.
// Stock here is advisory; the deduct step is the authoritative guard. On
// success the task items carry catalog names and authoritative prices.
func (p *Pipeline) validate(ctx context.Context, task Task) error {
	for i, item := range task.Items {
		product, err := p.catalog.Lookup(ctx, item.ProductID, item.VariantID)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", item.ProductID, err)
		}
		if !product.Active {
			return fmt.Errorf("product %s: %w", item.ProductID, catalog.ErrProductUnavailable)
		}

		if err := p.ledger.Reserve(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
			return fmt.Errorf("reserve %dx %s: %w", item.Quantity, item.ProductID, err)
		}

		task.Items[i].ProductName = product.Name
		task.Items[i].VariantName = product.VariantName
		task.Items[i].SKU = product.SKU
		task.Items[i].UnitPrice = product.Price
	}

	return p.queue.Publish(ctx, task.CheckoutID, task.next(StepCreate))
}

// create builds and persists the order from the validated snapshot. The
// idempotency key makes a retried create return the original order.
func (p *Pipeline) create(ctx context.Context, task Task) error {
	items := make([]order.Item, 0, len(task.Items))
	var subtotal int64
	for _, item := range task.Items {
		total := item.UnitPrice * int64(item.Quantity)
		subtotal += total
		items = append(items, order.Item{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  total,
		})
	}

	o := &order.Order{
		UserID:         task.UserID,
		Items:          items,
		Shipping:       task.Shipping,
		Billing:        task.Billing,
		Subtotal:       subtotal,
		TaxAmount:      task.TaxAmount,
		ShippingAmount: task.ShippingAmount,
		DiscountAmount: task.DiscountAmount,
		TotalAmount:    subtotal + task.TaxAmount + task.ShippingAmount - task.DiscountAmount,
		Notes:          task.Notes,
	}

	created, err := p.orders.Create(ctx, o, task.IdempotencyKey)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	already, err := p.events.HasEvent(ctx, created.ID, order.EventCreated)
	if err != nil {
		return err
	}
	if !already {
		_, err = p.events.Record(ctx, created.ID, order.EventCreated, "order created",
			map[string]any{"order_number": created.OrderNumber, "checkout_id": task.CheckoutID})
		if err != nil {
			return err
		}
	}

	task.OrderID = created.ID
	return p.queue.Publish(ctx, task.CheckoutID, task.next(StepDeduct))
}

// deduct atomically decrements stock for every line. A partial failure
// releases what was already taken before reporting the error, so the ledger
// never leaks a half-deducted checkout.
func (p *Pipeline) deduct(ctx context.Context, task Task) error {
	done, err := p.events.HasEvent(ctx, task.OrderID, order.EventStockDeducted)
	if err != nil {
		return err
	}
	if done {
		return p.queue.Publish(ctx, task.CheckoutID, task.next(StepConfirm))
	}

	for i, item := range task.Items {
		if err := p.ledger.Deduct(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
			for _, taken := range task.Items[:i] {
				if relErr := p.ledger.Release(ctx, taken.ProductID, taken.VariantID, taken.Quantity); relErr != nil {
					logger.Error().Err(relErr).Str("order_id", task.OrderID).
						Str("product_id", taken.ProductID).Msg("failed to release stock after partial deduct")
				}
			}
			return fmt.Errorf("deduct %dx %s: %w", item.Quantity, item.ProductID, err)
		}
	}

	if _, err := p.events.Record(ctx, task.OrderID, order.EventStockDeducted, "stock deducted",
		map[string]any{"items": len(task.Items)}); err != nil {
		return err
	}

	return p.queue.Publish(ctx, task.CheckoutID, task.next(StepConfirm))
}

// confirm moves the order out of pending, records the confirmation and
// empties the cart the checkout came from.
func (p *Pipeline) confirm(ctx context.Context, task Task) error {
	done, err := p.events.HasEvent(ctx, task.OrderID, order.EventOrderConfirmed)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	// The transition and the event marker are separate writes. A retried
	// confirm may find the transition already applied; the order status is
	// the marker for that half.
	o, err := p.orders.Get(ctx, task.OrderID)
	if err != nil {
		return err
	}
	if o.Status == order.StatusPending {
		if _, err := p.orders.Transition(ctx, task.OrderID, order.StatusProcessing, "system", "checkout confirmed"); err != nil {
			return fmt.Errorf("confirm order: %w", err)
		}
	}

	if _, err := p.events.Record(ctx, task.OrderID, order.EventOrderConfirmed, "order confirmed",
		map[string]any{"checkout_id": task.CheckoutID}); err != nil {
		return err
	}

	if err := p.carts.Clear(ctx, task.UserID); err != nil {
		// The order is already confirmed; a stale cart is recoverable.
		logger.Error().Err(err).Str("user_id", task.UserID).Msg("failed to clear cart after confirm")
	}

	logger.Info().Str("order_id", task.OrderID).Str("checkout_id", task.CheckoutID).Msg("checkout completed")
	return nil
}

// release returns previously deducted stock after a cancel.
func (p *Pipeline) release(ctx context.Context, task Task) error {
	done, err := p.events.HasEvent(ctx, task.OrderID, order.EventStockReleased)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	for _, item := range task.Items {
		if err := p.ledger.Release(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
			return fmt.Errorf("release %dx %s: %w", item.Quantity, item.ProductID, err)
		}
	}

	_, err = p.events.Record(ctx, task.OrderID, order.EventStockReleased, "stock released",
		map[string]any{"items": len(task.Items)})
	return err
}

// handleStepError decides between retry and failure. Terminal errors and
// exhausted retries both end the checkout: the failure is recorded and any
// order already created is cancelled.
func (p *Pipeline) handleStepError(ctx context.Context, task Task, stepErr error) error {
	if !isTerminal(stepErr) && task.Attempt < p.maxAttempts {
		logger.Warn().Err(stepErr).Str("step", task.Step).Str("checkout_id", task.CheckoutID).
			Int("attempt", task.Attempt).Msg("step failed, retrying")
		return p.queue.Publish(ctx, task.CheckoutID, task.retry())
	}

	return p.fail(ctx, task, stepErr)
}

func (p *Pipeline) fail(ctx context.Context, task Task, stepErr error) error {
	logger.Error().Err(stepErr).Str("step", task.Step).Str("checkout_id", task.CheckoutID).
		Int("attempt", task.Attempt).Msg("checkout failed")

	if task.Step == StepValidate && errors.Is(stepErr, inventory.ErrInsufficientStock) {
		if _, err := p.events.Record(ctx, task.auditID(), order.EventStockInsufficient, stepErr.Error(),
			map[string]any{"step": task.Step, "user_id": task.UserID}); err != nil {
			return err
		}
	}

	if task.Step == StepDeduct && task.OrderID != "" && errors.Is(stepErr, inventory.ErrInsufficientStock) {
		if _, err := p.events.Record(ctx, task.OrderID, order.EventStockDeductionFailed, stepErr.Error(), nil); err != nil {
			return err
		}
	}

	if task.OrderID != "" {
		// A failure past deduct leaves stock taken for an order that will
		// never ship. Hand it back through the release step, which dedupes
		// on its own marker.
		if task.Step != StepRelease {
			deducted, err := p.events.HasEvent(ctx, task.OrderID, order.EventStockDeducted)
			if err != nil {
				return err
			}
			if deducted {
				if err := p.queue.Publish(ctx, task.CheckoutID, task.next(StepRelease)); err != nil {
					return err
				}
			}
		}

		if _, err := p.orders.Cancel(ctx, task.OrderID, "system", "checkout failed: "+stepErr.Error()); err != nil {
			logger.Error().Err(err).Str("order_id", task.OrderID).Msg("failed to cancel order after pipeline failure")
		}
	}

	_, err := p.events.Record(ctx, task.auditID(), order.EventCheckoutFailed, stepErr.Error(),
		map[string]any{"step": task.Step, "attempt": task.Attempt, "user_id": task.UserID})
	return err
}
