// Package server provides the HTTP API surface of spec.md §6: an
// OpenAI-compatible chat-completions endpoint, connection-management REST
// routes, a dedicated natural-language query endpoint, and a websocket
// variant of the orchestrator's StreamEvent sequence. Middleware
// (request-id, logging, CORS, panic recovery) and response/JSON helpers
// follow the teacher's internal/platform/server layering.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/koopa0/nlqagent/internal/ai"
	"github.com/koopa0/nlqagent/internal/config"
	"github.com/koopa0/nlqagent/internal/connection"
	"github.com/koopa0/nlqagent/internal/handler"
	"github.com/koopa0/nlqagent/internal/observability"
	"github.com/koopa0/nlqagent/internal/orchestrator"
	"github.com/koopa0/nlqagent/internal/server/middleware"
	"github.com/koopa0/nlqagent/internal/server/websocket"
)

// Server is the HTTP API server: it owns no business state of its own,
// delegating every route to the Handler Registry, Connection Manager, AI
// Service, and Orchestrator it is constructed with.
type Server struct {
	registry      *handler.Registry
	connections   *connection.Manager
	orchestrator  *orchestrator.Orchestrator
	ai            *ai.Service
	logger        *slog.Logger
	server        *http.Server
	mux           *http.ServeMux
	config        config.ServerConfig
	security      config.SecurityConfig
	metrics       *observability.Metrics
	wsService     *websocket.StreamService
}

// Deps bundles the components a Server routes requests to.
type Deps struct {
	Registry     *handler.Registry
	Connections  *connection.Manager
	Orchestrator *orchestrator.Orchestrator
	AI           *ai.Service
}

// New creates a new HTTP API server.
func New(cfg config.ServerConfig, security config.SecurityConfig, deps Deps, logger *slog.Logger, metrics *observability.Metrics) (*Server, error) {
	if deps.Registry == nil || deps.Connections == nil || deps.Orchestrator == nil || deps.AI == nil {
		return nil, fmt.Errorf("server: all of Registry, Connections, Orchestrator, AI are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("server: logger is required")
	}

	mux := http.NewServeMux()
	httpServer := &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	s := &Server{
		registry:     deps.Registry,
		connections:  deps.Connections,
		orchestrator: deps.Orchestrator,
		ai:           deps.AI,
		logger:       observability.ServerLogger(logger, "http"),
		server:       httpServer,
		mux:          mux,
		config:       cfg,
		security:     security,
		metrics:      metrics,
		wsService:    websocket.NewStreamService(deps.Orchestrator, logger),
	}

	s.setupRoutes()
	return s, nil
}

// Start starts the HTTP API server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting HTTP API server",
		slog.String("address", s.config.Address),
		slog.Bool("tls_enabled", s.config.EnableTLS))

	if s.config.EnableTLS {
		if s.config.TLSCertFile == "" || s.config.TLSKeyFile == "" {
			return fmt.Errorf("TLS cert and key files are required when TLS is enabled")
		}
		return s.server.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP API server shutdown complete")
	return nil
}

// setupRoutes registers every route of spec.md §6 and wraps the mux in
// the standard middleware chain.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)

	s.mux.HandleFunc("GET /v1/handlers", s.handleListHandlerKinds)

	s.mux.HandleFunc("POST /v1/connections/test", s.handleTestConnection)
	s.mux.HandleFunc("POST /v1/connections", s.handleCreateConnection)
	s.mux.HandleFunc("GET /v1/connections", s.handleListConnections)
	s.mux.HandleFunc("PATCH /v1/connections/{id}", s.handleUpdateConnection)
	s.mux.HandleFunc("DELETE /v1/connections/{id}", s.handleDeleteConnection)
	s.mux.HandleFunc("POST /v1/connections/{id}/activate", s.handleActivateConnection)
	s.mux.HandleFunc("GET /v1/connections/{id}/schema", s.handleConnectionSchema)
	s.mux.HandleFunc("POST /v1/connections/{id}/query", s.handleConnectionQuery)

	s.mux.HandleFunc("GET /v1/health", s.handleHealth)
	s.mux.HandleFunc("POST /v1/query", s.handleNaturalLanguageQuery)
	s.mux.HandleFunc("GET /v1/stream/ws", s.wsService.HandleWebSocket)

	s.mux.HandleFunc("GET /", s.handleRoot)

	s.server.Handler = s.withMiddleware(s.mux)
	s.logger.Debug("HTTP API routes configured")
}

// withMiddleware wraps h so that the last wrapper applied is outermost:
// a request passes StandardResponse, requestID, CORS, logging and then
// recovery before reaching the mux.
func (s *Server) withMiddleware(h http.Handler) http.Handler {
	h = s.recoveryMiddleware(h)
	h = s.loggingMiddleware(h)
	h = s.corsMiddleware(h)
	h = s.requestIDMiddleware(h)
	h = middleware.StandardResponseMiddleware(h)
	return h
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"name":    "nlqagent API",
		"version": "v1",
		"endpoints": []string{
			"POST /v1/chat/completions",
			"GET /v1/handlers",
			"POST /v1/connections", "GET /v1/connections",
			"PATCH /v1/connections/{id}", "DELETE /v1/connections/{id}",
			"POST /v1/connections/{id}/activate",
			"GET /v1/connections/{id}/schema",
			"POST /v1/connections/{id}/query",
			"GET /v1/health",
			"POST /v1/query",
			"GET /v1/stream/ws",
		},
	})
}
