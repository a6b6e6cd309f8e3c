package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/televizor/billing/internal/middleware"
)

// Router assembles the HTTP surface: the provider webhook, the read-only
// status API, and the token-gated admin API.
func (h *Handler) Router(limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", ViewerPasswordHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Post("/webhook", h.HandleWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Get("/subscriptions/{userID}", h.HandleSubscriptionStatus)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdminToken)
			r.With(limiter.Middleware).Post("/invoices", h.HandleCreateInvoice)
			r.Post("/refunds", h.HandleRefund)
			r.Post("/users", h.HandleRegisterUser)
			r.Post("/trials", h.HandleStartTrial)
		})
	})

	r.Route("/admin/viewer", func(r chi.Router) {
		r.Post("/start", h.HandleViewerStart)
		r.Post("/stop", h.HandleViewerStop)
		r.Get("/status", h.HandleViewerStatus)
	})

	return r
}
