package router

import (
	"net/http"

	"orderdesk/internal/handler"
	"orderdesk/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers mounted by New. Webhook may be nil when
// no signing secret is configured.
type Handlers struct {
	Products *handler.ProductHandler
	Orders   *handler.OrderHandler
	Checkout *handler.CheckoutHandler
	Webhook  *handler.WebhookHandler
}

// Options carries the settings that shape the middleware chain.
type Options struct {
	APIKey         string
	AllowedOrigins []string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: RequestID -> RealIP -> Recovery -> Logging -> CORS
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.Products.Menu)
		r.Post("/checkout", h.Checkout.Checkout)
		r.Post("/checkout/confirm", h.Checkout.Confirm)
		r.Get("/orders/{orderNumber}", h.Orders.Status)
		if h.Webhook != nil {
			r.Post("/webhooks/stripe", h.Webhook.Stripe)
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(opts.APIKey, logger))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.List)
				r.Get("/stats", h.Orders.Stats)
				r.Get("/abandoned", h.Orders.Abandoned)
				r.Get("/{id}", h.Orders.GetByID)
				r.Get("/{id}/history", h.Orders.History)
				r.Post("/{id}/status", h.Orders.ChangeStatus)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.Products.List)
				r.Post("/", h.Products.Create)
				r.Put("/{id}", h.Products.Update)
				r.Patch("/{id}/availability", h.Products.SetAvailability)
				r.Delete("/{id}", h.Products.Delete)
			})
		})
	})

	return otelhttp.NewHandler(r, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
