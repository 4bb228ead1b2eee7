// Package web provides the HTTP server and handlers for the provider
// directory: a browse page, a filtered JSON API, CSV export, and an
// admin-gated forced refresh.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/localwise/directory/internal/config"
	"github.com/localwise/directory/internal/directory"
	"github.com/localwise/directory/internal/web/middleware"
)

// Server is the HTTP server for the provider directory.
type Server struct {
	cfg    *config.Config
	store  *directory.Store
	admin  *adminSession
	router *chi.Mux
	server *http.Server
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, store *directory.Store) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		admin:  newAdminSession(defaultAdminWindow),
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/providers", s.handleListProviders)
		r.Get("/categories", s.handleListCategories)
		r.Get("/export", s.handleExport)

		// Forced refresh is privileged: it hits the origin regardless of
		// cache freshness.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminTokenAuth(&s.cfg.Security, s.admin.Touch))
			r.Post("/refresh", s.handleRefresh)
		})
	})
}

// Handler exposes the router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// PrivilegedSessionActive reports whether an admin has acted recently.
// The auto-refresh scheduler consults this to pause while an administrator
// is working with the dataset.
func (s *Server) PrivilegedSessionActive() bool {
	return s.admin.Active()
}

// Start begins listening on the configured address. Blocks until the
// server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// securityHeaders sets conservative browser security headers on every
// response.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
			}
			next.ServeHTTP(w, r)
		})
	}
}
