// Package web provides the HTTP API for order imports and analysis.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/ordersync/internal/config"
	"github.com/JonMunkholm/ordersync/internal/core"
	"github.com/JonMunkholm/ordersync/internal/metrics"
	"github.com/JonMunkholm/ordersync/internal/web/middleware"
)

// Server is the HTTP server for the order API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	metrics *metrics.Collector
	router  *chi.Mux
	server  *http.Server

	limiters []*middleware.RateLimiter
}

// NewServer creates a Server. collector may be nil to disable /metrics.
func NewServer(service *core.Service, cfg *config.Config, collector *metrics.Collector) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		metrics: collector,
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
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Imports are bounded by the service's import timeout, everything else
	// by the request timeout.
	var bounded, importing []func(http.Handler) http.Handler
	if s.cfg.Server.RequestTimeout > 0 {
		bounded = append(bounded, chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	if s.cfg.Rate.Enabled {
		importing = append(importing, s.newLimiter(s.cfg.Rate.ImportLimit).Middleware)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		r.With(bounded...).Get("/sources", s.handleListSources)
		r.With(bounded...).Post("/analyze", s.handleAnalyzeRows)

		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			r.Use(s.tenantContext)

			r.With(importing...).Post("/imports", s.handleImport)
			r.With(bounded...).Get("/imports", s.handleImportHistory)
			r.With(bounded...).Get("/orders", s.handleListOrders)
			r.With(bounded...).Get("/analysis", s.handleAnalysis)
		})
	})
}

func (s *Server) newLimiter(perMinute int) *middleware.RateLimiter {
	rl := middleware.NewRateLimiter(perMinute)
	s.limiters = append(s.limiters, rl)
	return rl
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
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

// Shutdown gracefully stops the server and its background limiters.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds hardening headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
