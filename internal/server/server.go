// package server contains the middleware & handlers for the singsync catalog service
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/singsync/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, panic recovery and rate limiting.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own several paths.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                                          // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler, route ...Middleware) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                                               // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request)                      // ServeHTTP implements http.Handler for the entire router
}

// Server runs a [Router] until its context is canceled.
type Server struct {
	http   *http.Server
	logger *log.Logger
}

// New creates a server listening on cfg's address.
func New(cfg shared.ServerConfig, router Router, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	readTimeout := time.Duration(cfg.ReadTimeoutSec) * time.Second
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       readTimeout,
		},
		logger: logger,
	}
}

// Addr is the listen address.
func (s *Server) Addr() string { return s.http.Addr }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
