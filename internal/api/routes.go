package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/minicrm/internal/auth"
	"github.com/ignite/minicrm/internal/config"
)

// SetupRoutes configures all API routes. Auth routes and the health
// check stay outside the auth middleware; everything under /api
// requires a session when auth is enabled.
func SetupRoutes(cfg config.ServerConfig, h *Handlers, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS allows credentials so the frontend can send the session cookie.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/health", h.HealthCheck)

	if authManager != nil {
		r.Get("/auth/google", authManager.HandleLogin)
		r.Get("/auth/google/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/me", authManager.HandleUserInfo)
	}

	r.Route("/api", func(r chi.Router) {
		if authManager != nil {
			r.Use(authManager.RequireAuth)
		}

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", h.EnqueueCustomer)
			r.Get("/", h.ListCustomers)
			r.Get("/count", h.CountCustomers)
			r.Get("/by-email/{email}", h.GetCustomerByEmail)
			r.Get("/{id}", h.GetCustomer)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.EnqueueOrder)
			r.Get("/", h.ListOrders)
			r.Get("/count", h.CountOrders)
			r.Get("/by-email/{email}", h.ListOrdersByEmail)
			r.Get("/{id}", h.GetOrder)
		})

		r.Route("/segments", func(r chi.Router) {
			r.Post("/", h.CreateSegment)
			r.Get("/", h.ListSegments)
			r.Get("/count", h.CountSegments)
			r.Post("/preview", h.PreviewRules)
			r.Get("/{id}/preview", h.PreviewSegment)
			r.Get("/{id}", h.GetSegment)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", h.LaunchCampaign)
			r.Get("/", h.ListCampaigns)
			r.Get("/count", h.CountCampaigns)
			r.Get("/{id}/logs", h.CampaignLogs)
			r.Get("/{id}", h.GetCampaign)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/generate-rules", h.GenerateRules)
			r.Post("/generate-messages", h.GenerateMessages)
		})

		r.Route("/debug", func(r chi.Router) {
			r.Get("/streams", h.DebugStreams)
			r.Post("/process-all-queued", h.DebugProcessAllQueued)
			r.Get("/consumer-health", h.DebugConsumerHealth)
		})
	})

	return r
}
