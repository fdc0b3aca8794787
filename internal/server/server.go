// Package server hosts the HTTP API: core routes, the handlers that
// register themselves on the mux, and shared middleware.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/version"
)

// RouteRegistrar is implemented by handlers that mount their own routes.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// HealthFunc adds component details to the health response.
type HealthFunc func() map[string]any

// Server is the main DistroCompare HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	health     HealthFunc
}

// Option configures a Server.
type Option func(*Server)

// WithHealth sets the health detail callback.
func WithHealth(fn HealthFunc) Option {
	return func(s *Server) { s.health = fn }
}

// WithMiddleware wraps the mux, outermost first.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		h := s.httpServer.Handler
		for i := len(mw) - 1; i >= 0; i-- {
			h = mw[i](h)
		}
		s.httpServer.Handler = h
	}
}

// New creates a server listening on addr with routes from every registrar.
func New(addr string, logger *zap.Logger, registrars []RouteRegistrar, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 15 * time.Second,
			// Session streams hold the connection open; handlers bound
			// their own writes.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.registerCoreRoutes()
	for _, r := range registrars {
		r.RegisterRoutes(mux)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"service": "distrocompare",
		"version": version.Map(),
	}
	if s.health != nil {
		for k, v := range s.health() {
			body[k] = v
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-DistroCompare-Version", version.Short())
	_ = json.NewEncoder(w).Encode(body)
}
