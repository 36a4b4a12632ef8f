// Package api exposes the operator-facing HTTP surface of the bridge:
// registry inspection, the dispatch journal, a loopback invoke endpoint for
// development, and a live event stream. It is not the bridge transport —
// the embedded context talks over the host's messaging channel, not HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/minibridge/internal/events"
	"github.com/mattjoyce/minibridge/internal/journal"
)

// Bridge defines the dispatcher operations the API exposes.
type Bridge interface {
	ProcessRequest(ctx context.Context, raw string) string
	CreateEventPayload(event string, data map[string]any) (string, error)
}

// MethodRegistry defines the registry queries the API exposes.
type MethodRegistry interface {
	Namespaces() []string
	Methods(namespace string) []string
	IsRegistered(namespace, method string) bool
}

// JournalReader defines read access to the dispatch journal.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	Count(ctx context.Context) (int, error)
}

// Config holds API server configuration
type Config struct {
	Listen string
	APIKey string
}

// Server represents the HTTP API server
type Server struct {
	config    Config
	bridge    Bridge
	registry  MethodRegistry
	journal   JournalReader
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance
func New(config Config, bridge Bridge, registry MethodRegistry, jr JournalReader, hub *events.Hub, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		bridge:    bridge,
		registry:  registry,
		journal:   jr,
		hub:       hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start starts the HTTP server (blocking)
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute, // Long-lived SSE connections share this server
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	// Protected API.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/v1/namespaces", s.handleNamespaces)
		r.Get("/v1/namespaces/{namespace}/methods", s.handleMethods)
		r.Post("/v1/invoke", s.handleInvoke)
		r.Post("/v1/push/{event}", s.handlePush)
		r.Get("/v1/journal", s.handleJournal)
		r.Get("/v1/events", s.handleEvents)
	})

	return r
}

// loggingMiddleware logs each request at DEBUG level.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}
