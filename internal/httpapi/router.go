package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/TvixT/simple-mart/internal/limiter"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *AuthHandler
	Products *ProductHandler
	Category *CategoryHandler
	Cart     *CartHandler
	Orders   *OrderHandler
}

// NewRouter assembles the full API under /api.
func NewRouter(h Handlers, tokens TokenVerifier, rl limiter.Limiter, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, "ok", nil)
	})

	authn := Authenticate(tokens)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Credential endpoints are the brute-force surface.
			r.With(RateLimit(rl)).Post("/register", h.Auth.Register)
			r.With(RateLimit(rl)).Post("/login", h.Auth.Login)
			r.With(authn).Get("/profile", h.Auth.Profile)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)

			// Staff routes before the wildcard so "low-stock" and "stats"
			// are not swallowed by the {id} match.
			r.Group(func(r chi.Router) {
				r.Use(authn, RequireStaff)
				r.Get("/low-stock", h.Products.LowStock)
				r.Get("/stats", h.Products.Stats)
				r.Put("/{id}/stock", h.Products.UpdateStock)
			})
			r.Group(func(r chi.Router) {
				r.Use(authn, RequireAdmin)
				r.Post("/", h.Products.Create)
				r.Put("/{id}", h.Products.Update)
				r.Delete("/{id}", h.Products.Delete)
			})

			r.Get("/{id}", h.Products.Get)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Category.List)
			r.Get("/{id}", h.Category.Get)

			r.Group(func(r chi.Router) {
				r.Use(authn, RequireAdmin)
				r.Post("/", h.Category.Create)
				r.Put("/{id}", h.Category.Update)
				r.Delete("/{id}", h.Category.Delete)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", h.Cart.Get)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{productId}", h.Cart.UpdateQuantity)
			r.Delete("/items/{productId}", h.Cart.RemoveItem)
			r.Delete("/", h.Cart.Clear)
			r.Get("/validate", h.Cart.ValidateStock)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authn)

			r.Post("/", h.Orders.Place)
			r.Get("/", h.Orders.ListMine)

			r.With(RequireStaff).Put("/{id}/status", h.Orders.UpdateStatus)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/all", h.Orders.List)
				r.Get("/stats", h.Orders.Stats)
				r.Get("/daily-sales", h.Orders.DailySales)
				r.Delete("/{id}", h.Orders.Delete)
			})

			r.Get("/{id}", h.Orders.Get)
			r.Post("/{id}/cancel", h.Orders.Cancel)
			r.Put("/{id}/address", h.Orders.UpdateShippingAddress)
		})
	})

	return r
}
