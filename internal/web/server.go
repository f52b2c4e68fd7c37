// Package web provides the HTTP server and JSON handlers for the resource API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/resourcevault/internal/config"
	"github.com/JonMunkholm/resourcevault/internal/core"
	"github.com/JonMunkholm/resourcevault/internal/logging"
	"github.com/JonMunkholm/resourcevault/internal/web/middleware"
)

// Server is the HTTP server for the resource API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server routing requests to service.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(requestMetadata)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(middleware.Metrics)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(middleware.SecurityHeaders)
	s.router.Use(middleware.CORS(s.cfg.Security.AllowedOrigins))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Operational endpoints are never rate limited
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	general, imports := s.rateLimiters()

	s.router.Route("/api", func(r chi.Router) {
		r.Use(general)

		r.Get("/", s.handleRoot)

		r.Route("/resources", func(r chi.Router) {
			r.Post("/", s.handleCreateResource)
			r.Get("/", s.handleListResources)
			r.With(imports).Post("/import", s.handleImport)
			r.Put("/{id}", s.handleUpdateResource)
			r.Delete("/{id}", s.handleDeleteResource)
		})
	})
}

// rateLimiters returns the general and import-route limiting middleware.
// Both are no-ops when rate limiting is disabled.
func (s *Server) rateLimiters() (general, imports func(http.Handler) http.Handler) {
	passthrough := func(next http.Handler) http.Handler { return next }
	if !s.cfg.Rate.Enabled {
		return passthrough, passthrough
	}
	return middleware.NewRateLimiter(s.cfg.Rate.RequestsPerMinute).Middleware,
		middleware.NewRateLimiter(s.cfg.Rate.ImportLimit).Middleware
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// writeJSON encodes v as the response body with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
