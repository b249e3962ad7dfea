package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/mihuella/pettrack/internal/api/handler"
	"github.com/mihuella/pettrack/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(deps handler.Deps, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", handler.UserHeader},
		ExposedHeaders:   []string{"X-Process-Time", "X-Request-Id"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	h := handler.New(deps)

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// API v1 routes, scoped to the calling user
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handler.RequireUser)

		r.Route("/pets", func(r chi.Router) {
			r.Get("/", h.ListPets)
			r.Post("/", h.CreatePet)
			r.Post("/{petID}/location", h.ReportLocation)
			r.Get("/{petID}/history", h.GetHistory)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Delete("/", h.ClearNotifications)
			r.Get("/unread-count", h.UnreadCount)
			r.Post("/{id}/read", h.MarkRead)
		})

		r.Put("/devices/push-token", h.SetPushToken)

		r.Route("/chip", func(r chi.Router) {
			r.Get("/address", h.GetAddress)
			r.Put("/address", h.PutAddress)
			r.Get("/orders", h.ListOrders)
			r.Post("/orders", h.PlaceOrder)
		})
	})

	return r
}
