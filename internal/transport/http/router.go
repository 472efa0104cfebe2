package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/health"
	"github.com/vladislavdragonenkov/shop/internal/service/authsvc"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/catalog"
	"github.com/vladislavdragonenkov/shop/internal/service/checkout"
	"github.com/vladislavdragonenkov/shop/internal/service/user"
)

// Services собирает зависимости HTTP-слоя.
type Services struct {
	Auth     *authsvc.Service
	Users    *user.Service
	Catalog  *catalog.Service
	Carts    *cart.Service
	Checkout *checkout.Service
	Store    domain.Store
	Tokens   *auth.TokenManager
	Health   *health.Handler
	Logger   *log.Entry
}

type handlers struct {
	Services
}

// NewRouter строит маршрутизатор API.
func NewRouter(deps Services) http.Handler {
	if deps.Logger == nil {
		deps.Logger = log.New().WithField("component", "http")
	}
	h := &handlers{Services: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	if deps.Health != nil {
		r.Get("/healthz", deps.Health.ServeHTTP)
		r.Get("/readyz", deps.Health.ReadinessHandler)
		r.Get("/livez", health.LivenessHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.With(Authenticator(deps.Tokens)).Get("/profile", h.profile)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Get("/search", h.searchProducts)
			r.Get("/{id}", h.getProduct)

			r.Group(func(r chi.Router) {
				r.Use(Authenticator(deps.Tokens), RequireAdmin)
				r.Post("/", h.createProduct)
				r.Put("/{id}", h.updateProduct)
				r.Delete("/{id}", h.deleteProduct)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(Authenticator(deps.Tokens))
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addCartItem)
			r.Put("/items/{itemID}", h.updateCartItem)
			r.Delete("/items/{itemID}", h.removeCartItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(Authenticator(deps.Tokens))
			r.Post("/", h.createOrder)
			r.Get("/", h.listMyOrders)
			r.Get("/{id}", h.getOrder)
			r.Post("/{id}/cancel", h.cancelOrder)
			r.Get("/{id}/timeline", h.getOrderTimeline)
		})

		r.Route("/admin/orders", func(r chi.Router) {
			r.Use(Authenticator(deps.Tokens), RequireAdmin)
			r.Get("/", h.listAllOrders)
			r.Put("/{id}/status", h.updateOrderStatus)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(Authenticator(deps.Tokens))
			r.Put("/me", h.updateMyProfile)
			r.Put("/me/password", h.changeMyPassword)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/", h.listUsers)
				r.Get("/{id}", h.getUser)
				r.Delete("/{id}", h.deleteUser)
			})
		})
	})

	return r
}
