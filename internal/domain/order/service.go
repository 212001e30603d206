package order

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "order").Logger()

// Service applies the order state machine on top of a Repository. Every
// successful transition appends exactly one StatusChange entry.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create persists a new order. The caller provides items, addresses and
// amounts; identity fields and timestamps are assigned here. The pricing
// invariant is enforced before anything is written.
func (s *Service) Create(ctx context.Context, o *Order, idempotencyKey string) (*Order, error) {
	if len(o.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := o.ValidateTotals(); err != nil {
		return nil, err
	}

	// Retried creation with the same key must return the original order,
	// never a duplicate.
	if idempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			logger.Info().Str("order_id", existing.ID).Str("idempotency_key", idempotencyKey).
				Msg("duplicate create detected, returning existing order")
			return existing, nil
		}
	}

	now := time.Now()
	o.ID = uuid.New().String()
	o.OrderNumber = NewOrderNumber()
	o.Status = StatusPending
	o.PaymentStatus = PaymentPending
	o.CreatedAt = now
	o.UpdatedAt = now

	if err := s.repo.Create(ctx, o, idempotencyKey); err != nil {
		if err == ErrDuplicateOrder && idempotencyKey != "" {
			return s.repo.GetByIdempotencyKey(ctx, idempotencyKey)
		}
		return nil, err
	}

	logger.Info().Str("order_id", o.ID).Str("order_number", o.OrderNumber).Msg("order created")
	return o, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]*Order, error) {
	return s.repo.ListAll(ctx)
}

// Transition moves an order to the target status, rejecting anything the
// state machine does not allow, and records the change in history.
func (s *Service) Transition(ctx context.Context, orderID string, target Status, actor, note string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !o.CanTransitionTo(target) {
		return nil, o.transitionError(target)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, target); err != nil {
		return nil, err
	}

	change := &StatusChange{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		FromStatus: o.Status,
		ToStatus:   target,
		ChangedBy:  actor,
		Note:       note,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.AppendStatusHistory(ctx, change); err != nil {
		return nil, err
	}

	logger.Info().Str("order_id", orderID).
		Str("from", string(o.Status)).Str("to", string(target)).
		Str("actor", actor).Msg("order status changed")

	o.Status = target
	o.UpdatedAt = change.CreatedAt
	return o, nil
}

// Cancel is the user-facing cancel: only accepted while the order can still
// be cancelled.
func (s *Service) Cancel(ctx context.Context, orderID, actor, reason string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanBeCancelled() {
		return nil, o.transitionError(StatusCancelled)
	}
	return s.Transition(ctx, orderID, StatusCancelled, actor, reason)
}

// Ship records the tracking number and moves the order to shipped.
func (s *Service) Ship(ctx context.Context, orderID, actor, trackingNumber string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanTransitionTo(StatusShipped) {
		return nil, o.transitionError(StatusShipped)
	}
	if err := s.repo.UpdateShippingInfo(ctx, orderID, trackingNumber); err != nil {
		return nil, err
	}
	return s.Transition(ctx, orderID, StatusShipped, actor, "tracking "+trackingNumber)
}

func (s *Service) Deliver(ctx context.Context, orderID, actor string) (*Order, error) {
	return s.Transition(ctx, orderID, StatusDelivered, actor, "")
}

// MarkPayment moves the payment status through its own transition table.
// Payment changes do not touch order status; callers surface them through
// the event log instead of a dedicated history.
func (s *Service) MarkPayment(ctx context.Context, orderID string, target PaymentStatus) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanPaymentTransitionTo(target) {
		return nil, ErrInvalidPaymentTransition
	}
	if err := s.repo.UpdatePaymentStatus(ctx, orderID, target); err != nil {
		return nil, err
	}
	o.PaymentStatus = target
	return o, nil
}

// Refund marks both the order and its payment as refunded.
func (s *Service) Refund(ctx context.Context, orderID, actor, reason string) (*Order, error) {
	o, err := s.Transition(ctx, orderID, StatusRefunded, actor, reason)
	if err != nil {
		return nil, err
	}
	if _, err := s.MarkPayment(ctx, orderID, PaymentRefunded); err != nil {
		return nil, err
	}
	o.PaymentStatus = PaymentRefunded
	return o, nil
}

func (s *Service) History(ctx context.Context, orderID string) ([]*StatusChange, error) {
	return s.repo.StatusHistory(ctx, orderID)
}
