package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vasiliy-maslov/teashop/internal/cart"
	"github.com/vasiliy-maslov/teashop/internal/metrics"
	"github.com/vasiliy-maslov/teashop/internal/order"
	"github.com/vasiliy-maslov/teashop/internal/product"
	"github.com/vasiliy-maslov/teashop/internal/user"
)

// Tokens signs and verifies access tokens.
type Tokens interface {
	TokenIssuer
	TokenParser
}

type Dependencies struct {
	Users    user.Service
	Products product.Service
	Carts    cart.Service
	Orders   order.Service
	Tokens   Tokens
}

// NewRouter builds the full API router under /api plus /health and /metrics.
func NewRouter(deps Dependencies) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger)
	router.Use(metrics.Middleware)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	router.Handle("/metrics", metrics.Handler())

	authenticated := Authenticate(deps.Tokens)
	admin := chi.Chain(authenticated, RequireAdmin).Handler

	router.Route("/api", func(api chi.Router) {
		NewAuthHandler(deps.Users, deps.Tokens).RegisterRoutes(api, authenticated)
		NewProductHandler(deps.Products).RegisterRoutes(api, admin)

		api.Group(func(r chi.Router) {
			r.Use(authenticated)
			NewCartHandler(deps.Carts).RegisterRoutes(r)
			NewOrderHandler(deps.Orders).RegisterRoutes(r)
		})
	})

	return router
}
