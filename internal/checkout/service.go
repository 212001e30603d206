package checkout

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/ec-orders/internal/domain/cart"
	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/infrastructure/cache"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "checkout").Logger()

// idempotencyTTL bounds how long a key blocks duplicate checkouts in the
// fast path. The orders table unique constraint backs it indefinitely.
const idempotencyTTL = 24 * time.Hour

// Queue publishes pipeline tasks. Satisfied by kafka.Producer.
type Queue interface {
	Publish(ctx context.Context, key string, payload any) error
}

// Request is the user-supplied portion of a checkout.
type Request struct {
	Shipping       order.Address `json:"shipping_address"`
	Billing        order.Address `json:"billing_address"`
	TaxAmount      int64         `json:"tax_amount"`
	ShippingAmount int64         `json:"shipping_amount"`
	DiscountAmount int64         `json:"discount_amount"`
	Notes          string        `json:"notes"`
	IdempotencyKey string        `json:"idempotency_key"`
}

// Service accepts checkouts and enqueues them for asynchronous processing.
// Initiate returns as soon as the first task is on the queue; the order is
// created by the pipeline, not here.
type Service struct {
	carts *cart.Service
	idem  cache.IdempotencyStore
	queue Queue
}

func NewService(carts *cart.Service, idem cache.IdempotencyStore, queue Queue) *Service {
	return &Service{carts: carts, idem: idem, queue: queue}
}

// Initiate snapshots the cart and enqueues the validate task. Returns the
// checkout id the caller can poll events with. A repeated idempotency key
// returns the original checkout id without enqueueing anything.
func (s *Service) Initiate(ctx context.Context, userID string, req Request) (string, error) {
	snapshot, err := s.carts.Snapshot(ctx, userID)
	if err != nil {
		return "", err
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.New().String()
	}

	checkoutID := uuid.New().String()
	existing, claimed, err := s.idem.Claim(ctx, key, checkoutID, idempotencyTTL)
	if err != nil {
		return "", err
	}
	if !claimed {
		logger.Info().Str("idempotency_key", key).Str("checkout_id", existing).
			Msg("duplicate checkout suppressed")
		if existing != "" {
			return existing, nil
		}
		return checkoutID, nil
	}

	items := make([]TaskItem, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		items = append(items, TaskItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	task := Task{
		CheckoutID:     checkoutID,
		Step:           StepValidate,
		Attempt:        1,
		UserID:         userID,
		IdempotencyKey: key,
		Items:          items,
		Shipping:       req.Shipping,
		Billing:        req.Billing,
		TaxAmount:      req.TaxAmount,
		ShippingAmount: req.ShippingAmount,
		DiscountAmount: req.DiscountAmount,
		Notes:          req.Notes,
	}

	if err := s.queue.Publish(ctx, checkoutID, task); err != nil {
		return "", err
	}

	logger.Info().Str("checkout_id", checkoutID).Str("user_id", userID).
		Int("items", len(items)).Msg("checkout accepted")
	return checkoutID, nil
}
