package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/ec-orders/internal/api/middleware"
	"github.com/example/ec-orders/internal/command"
	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/domain/user"
	"github.com/example/ec-orders/internal/query"
)

// Handlers wires HTTP requests to the command and query sides.
type Handlers struct {
	commands *command.Handler
	queries  *query.Handler
}

func NewHandlers(commands *command.Handler, queries *query.Handler) *Handlers {
	return &Handlers{commands: commands, queries: queries}
}

func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	return ok && claims.Role == user.RoleAdmin
}

// ============================================================
// Cart
// ============================================================

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.queries.GetCart(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cmd.UserID = middleware.GetUserID(r.Context())

	c, err := h.commands.AddToCart(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateCartItem
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cmd.UserID = middleware.GetUserID(r.Context())
	cmd.ProductID = chi.URLParam(r, "productID")

	c, err := h.commands.UpdateCartItem(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveFromCart{
		UserID:    middleware.GetUserID(r.Context()),
		ProductID: chi.URLParam(r, "productID"),
		VariantID: r.URL.Query().Get("variant_id"),
	}

	c, err := h.commands.RemoveFromCart(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.ClearCart{UserID: middleware.GetUserID(r.Context())}
	if err := h.commands.ClearCart(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

// ============================================================
// Checkout
// ============================================================

// Checkout accepts the request and returns the checkout id immediately. The
// order materializes asynchronously; data.order is always null here.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var cmd command.Checkout
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cmd.UserID = middleware.GetUserID(r.Context())
	if cmd.IdempotencyKey == "" {
		cmd.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}

	checkoutID, err := h.commands.Checkout(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respond(w, http.StatusAccepted, map[string]any{
		"checkout_id": checkoutID,
		"order":       nil,
	})
}

// CheckoutEvents lets clients poll a checkout that may not have produced an
// order, e.g. one that failed stock validation.
func (h *Handlers) CheckoutEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.CheckoutEvents(r.Context(), chi.URLParam(r, "checkoutID"),
		middleware.GetUserID(r.Context()), isAdmin(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, events)
}

// ============================================================
// Orders
// ============================================================

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.ListOrders(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.queries.GetOrder(r.Context(), chi.URLParam(r, "orderID"),
		middleware.GetUserID(r.Context()), isAdmin(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handlers) OrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.queries.OrderHistory(r.Context(), chi.URLParam(r, "orderID"),
		middleware.GetUserID(r.Context()), isAdmin(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, history)
}

func (h *Handlers) OrderEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.OrderEvents(r.Context(), chi.URLParam(r, "orderID"),
		middleware.GetUserID(r.Context()), isAdmin(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, events)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	o, err := h.commands.CancelOrder(r.Context(), command.CancelOrder{
		OrderID: chi.URLParam(r, "orderID"),
		UserID:  middleware.GetUserID(r.Context()),
		IsAdmin: isAdmin(r),
		Reason:  body.Reason,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

// ============================================================
// Admin
// ============================================================

func (h *Handlers) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.ListAllOrders(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handlers) ShipOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TrackingNumber string `json:"tracking_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.commands.ShipOrder(r.Context(), command.ShipOrder{
		OrderID:        chi.URLParam(r, "orderID"),
		Actor:          middleware.GetUserID(r.Context()),
		TrackingNumber: body.TrackingNumber,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handlers) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.commands.DeliverOrder(r.Context(), command.DeliverOrder{
		OrderID: chi.URLParam(r, "orderID"),
		Actor:   middleware.GetUserID(r.Context()),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handlers) RefundOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	o, err := h.commands.RefundOrder(r.Context(), command.RefundOrder{
		OrderID: chi.URLParam(r, "orderID"),
		Actor:   middleware.GetUserID(r.Context()),
		Reason:  body.Reason,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handlers) MarkPayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status order.PaymentStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.commands.MarkPayment(r.Context(), command.MarkPayment{
		OrderID: chi.URLParam(r, "orderID"),
		Status:  body.Status,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handlers) AddStock(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddStock
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.commands.AddStock(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *Handlers) GetStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	variantID := r.URL.Query().Get("variant_id")

	stock, err := h.queries.AvailableStock(r.Context(), productID, variantID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"product_id": productID,
		"variant_id": variantID,
		"stock":      stock,
	})
}
