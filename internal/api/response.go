package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/ec-orders/internal/auth"
	"github.com/example/ec-orders/internal/command"
	"github.com/example/ec-orders/internal/domain/cart"
	"github.com/example/ec-orders/internal/domain/catalog"
	"github.com/example/ec-orders/internal/domain/inventory"
	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/domain/user"
	"github.com/example/ec-orders/internal/query"
)

// Response is the uniform envelope: success with data, or failure with a
// non-empty errors list and null data.
type Response struct {
	Success bool     `json:"success"`
	Data    any      `json:"data"`
	Errors  []string `json:"errors"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data, Errors: []string{}})
}

func respondError(w http.ResponseWriter, status int, messages ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Success: false, Data: nil, Errors: messages})
}

// respondDomainError maps domain errors onto HTTP status codes. Unknown
// errors become an opaque 500.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, inventory.ErrNotTracked):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, command.ErrForbidden),
		errors.Is(err, query.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrInvalidPaymentTransition),
		errors.Is(err, user.ErrEmailTaken):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, catalog.ErrProductUnavailable),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrInvalidName),
		errors.Is(err, auth.ErrPasswordTooShort):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
