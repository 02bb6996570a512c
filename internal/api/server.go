// Package api exposes the CRM over HTTP: customer and order ingestion,
// segments, campaigns, AI generation, auth, and debug endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/minicrm/internal/ai"
	"github.com/ignite/minicrm/internal/auth"
	"github.com/ignite/minicrm/internal/config"
	"github.com/ignite/minicrm/internal/ingest"
	"github.com/ignite/minicrm/internal/queue"
	"github.com/ignite/minicrm/internal/service/campaign"
	"github.com/ignite/minicrm/internal/service/segment"
)

// Server represents the API server.
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
	router  *chi.Mux
}

// Deps bundles everything the handlers need.
type Deps struct {
	Queue     *queue.Store
	Processor *ingest.Processor
	Customers CustomerReader
	Orders    OrderReader
	Segments  *segment.Service
	Campaigns *campaign.Service
	AI        *ai.Client
	Auth      *auth.Manager
	DB        Pinger
}

// NewServer creates an API server with all routes configured.
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	h := NewHandlers(deps)
	router := SetupRoutes(cfg, h, deps.Auth)
	return &Server{
		config:  cfg,
		handler: router,
		router:  router,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
