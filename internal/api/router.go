package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/example/ec-orders/internal/api/middleware"
	"github.com/example/ec-orders/internal/auth"
	"github.com/example/ec-orders/internal/domain/user"
)

// NewRouter assembles the HTTP surface. Checkout gets its own rate limit on
// top of auth so retry storms stop at the edge.
func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	checkoutLimiter := middleware.NewRateLimiter(1, 3)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandlers.Register)
			r.Post("/login", authHandlers.Login)
			r.Post("/refresh", authHandlers.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(jwtService))
				r.Get("/me", authHandlers.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(jwtService))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", handlers.GetCart)
				r.Delete("/", handlers.ClearCart)
				r.Post("/items", handlers.AddToCart)
				r.Put("/items/{productID}", handlers.UpdateCartItem)
				r.Delete("/items/{productID}", handlers.RemoveFromCart)
			})

			r.Group(func(r chi.Router) {
				r.Use(checkoutLimiter.Limit)
				r.Post("/checkout", handlers.Checkout)
			})
			r.Get("/checkout/{checkoutID}/events", handlers.CheckoutEvents)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", handlers.ListOrders)
				r.Get("/{orderID}", handlers.GetOrder)
				r.Get("/{orderID}/history", handlers.OrderHistory)
				r.Get("/{orderID}/events", handlers.OrderEvents)
				r.Post("/{orderID}/cancel", handlers.CancelOrder)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(jwtService))
			r.Use(middleware.RequireRole(user.RoleAdmin))

			r.Get("/orders", handlers.ListAllOrders)
			r.Post("/orders/{orderID}/ship", handlers.ShipOrder)
			r.Post("/orders/{orderID}/deliver", handlers.DeliverOrder)
			r.Post("/orders/{orderID}/refund", handlers.RefundOrder)
			r.Post("/orders/{orderID}/payment", handlers.MarkPayment)

			r.Post("/inventory", handlers.AddStock)
			r.Get("/inventory/{productID}", handlers.GetStock)
		})
	})

	return r
}
