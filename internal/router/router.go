package router

import (
	"net/http"

	"shopcart/internal/auth"
	"shopcart/internal/handler"
	"shopcart/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Checkout *handler.CheckoutHandler
	Health   *handler.HealthHandler
}

// Options carries the cross-cutting dependencies of the router.
type Options struct {
	Authenticator  *auth.Authenticator
	HTTPMetrics    *middleware.HTTPMetrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> Metrics -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logging(logger))
	if opts.HTTPMetrics != nil {
		r.Use(opts.HTTPMetrics.Middleware)
	}
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Public
	r.Get("/health", h.Health.Check)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/products", h.Product.List)
	r.Get("/products/{id}", h.Product.GetByID)
	r.Post("/webhook/payment", h.Checkout.Webhook)

	// Any authenticated user
	r.Group(func(r chi.Router) {
		r.Use(opts.Authenticator.RequireAuth())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.Get)
			r.Delete("/", h.Cart.Clear)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{productId}", h.Cart.UpdateItem)
			r.Delete("/items/{productId}", h.Cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/create-session", h.Checkout.CreateSession)
			r.Get("/session/{id}", h.Checkout.GetSession)
			r.Post("/demo", h.Checkout.Demo)
		})

		r.Get("/orders", h.Order.List)
		r.Get("/orders/{id}", h.Order.GetByID)
	})

	// Catalogue administration
	r.Group(func(r chi.Router) {
		r.Use(opts.Authenticator.RequireAuth(auth.RoleAdmin))

		r.Post("/products", h.Product.Create)
		r.Put("/products/{id}", h.Product.Update)
		r.Delete("/products/{id}", h.Product.Delete)
	})

	return r
}
