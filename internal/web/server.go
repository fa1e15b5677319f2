// Package web provides the HTTP API for parsing LI-COR logs.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/licor/internal/config"
	"github.com/JonMunkholm/licor/internal/core"
	"github.com/JonMunkholm/licor/internal/dictionary"
	"github.com/JonMunkholm/licor/internal/metrics"
	weblog "github.com/JonMunkholm/licor/internal/web/middleware"
)

// Server is the HTTP server for the parse API.
type Server struct {
	cfg       *config.Config
	dict      *core.Dictionary
	entries   []dictionary.Entry
	variables map[string]dictionary.Entry
	limiter   *core.ParseLimiter
	metrics   *metrics.Metrics
	router    *chi.Mux
	server    *http.Server
}

// NewServer creates a Server that parses with the given dictionary entries.
// m may be nil, in which case /metrics is not mounted.
func NewServer(cfg *config.Config, entries []dictionary.Entry, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:       cfg,
		dict:      dictionary.Build(entries),
		entries:   entries,
		variables: make(map[string]dictionary.Entry, len(entries)),
		limiter:   core.NewParseLimiter(cfg.Server.MaxConcurrent, cfg.Server.MaxWaitTime),
		metrics:   m,
		router:    chi.NewRouter(),
	}
	for _, e := range entries {
		if _, dup := s.variables[e.InternalName]; !dup {
			s.variables[e.InternalName] = e
		}
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(weblog.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(weblog.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(weblog.APIKeyAuth(&s.cfg.Security))

		r.Post("/parse", s.handleParse)

		r.Get("/devices", s.handleListDevices)
		r.Get("/measurements", s.handleListMeasurements)

		r.Get("/variables", s.handleListVariables)
		r.Get("/variables/{name}", s.handleGetVariable)
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
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

// LimiterStatus reports how many parses are in flight.
func (s *Server) LimiterStatus() core.LimiterStatus {
	return s.limiter.Status()
}

// WaitForParses blocks until in-flight parses finish or ctx ends.
func (s *Server) WaitForParses(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// JSON only; nothing to load
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
