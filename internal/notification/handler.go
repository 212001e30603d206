package notification

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rs/zerolog"

	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/domain/user"
	"github.com/example/ec-orders/internal/email"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "notifier").Logger()

// Notifier delivers the confirmation to the customer. The email
// implementation is the default; tests use a recording fake.
type Notifier interface {
	NotifyOrderConfirmed(ctx context.Context, u *user.User, o *order.Order) error
}

// EmailNotifier sends confirmations over SMTP.
type EmailNotifier struct {
	emails *email.Service
}

func NewEmailNotifier(emails *email.Service) *EmailNotifier {
	return &EmailNotifier{emails: emails}
}

func (n *EmailNotifier) NotifyOrderConfirmed(ctx context.Context, u *user.User, o *order.Order) error {
	return n.emails.SendOrderConfirmation(u.Email, o)
}

// LogNotifier only logs; used when SMTP is not configured.
type LogNotifier struct{}

func (LogNotifier) NotifyOrderConfirmed(ctx context.Context, u *user.User, o *order.Order) error {
	logger.Info().Str("order_id", o.ID).Str("email", u.Email).Msg("order confirmation (log only)")
	return nil
}

// Handler consumes the order-events topic and notifies customers when their
// order is confirmed. Sending is recorded in the event log so a redelivered
// confirmation event cannot email twice.
type Handler struct {
	notifier Notifier
	orders   *order.Service
	users    *user.Service
	events   order.EventLog
}

func NewHandler(notifier Notifier, orders *order.Service, users *user.Service, events order.EventLog) *Handler {
	return &Handler{
		notifier: notifier,
		orders:   orders,
		users:    users,
		events:   events,
	}
}

// HandleEvent is the kafka consumer entry point.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event order.Event
	if err := json.Unmarshal(value, &event); err != nil {
		logger.Error().Err(err).Msg("dropping undecodable event")
		return nil
	}

	if event.EventType != order.EventOrderConfirmed {
		return nil
	}
	return h.handleOrderConfirmed(ctx, event)
}

func (h *Handler) handleOrderConfirmed(ctx context.Context, event order.Event) error {
	sent, err := h.events.HasEvent(ctx, event.OrderID, order.EventConfirmationSent)
	if err != nil {
		return err
	}
	if sent {
		return nil
	}

	o, err := h.orders.Get(ctx, event.OrderID)
	if err != nil {
		logger.Error().Err(err).Str("order_id", event.OrderID).Msg("failed to load order")
		return err
	}

	u, err := h.users.Get(ctx, o.UserID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", o.UserID).Msg("failed to load user")
		return err
	}

	if err := h.notifier.NotifyOrderConfirmed(ctx, u, o); err != nil {
		logger.Error().Err(err).Str("order_id", o.ID).Msg("failed to send confirmation")
		return err
	}

	if _, err := h.events.Record(ctx, o.ID, order.EventConfirmationSent, "confirmation sent",
		map[string]any{"email": u.Email}); err != nil {
		return err
	}

	logger.Info().Str("order_id", o.ID).Str("email", u.Email).Msg("order confirmation sent")
	return nil
}
