package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/crewhq/marketing-crew/internal/jobs"
	"github.com/crewhq/marketing-crew/internal/logger"
	"github.com/crewhq/marketing-crew/internal/nats"
	"github.com/crewhq/marketing-crew/internal/websocket"
)

// Server is the HTTP front end: job submission, result polling, websocket
// events, metrics and health.
type Server struct {
	manager    *jobs.Manager
	natsClient *nats.Client
	hub        *websocket.Hub
	httpServer *http.Server
	port       string
}

// NewServer creates the API server. natsClient may be nil when dispatch
// notifications are disabled.
func NewServer(manager *jobs.Manager, natsClient *nats.Client, hub *websocket.Hub, port string) *Server {
	s := &Server{
		manager:    manager,
		natsClient: natsClient,
		hub:        hub,
		port:       port,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins serving. Blocks until shutdown or listen failure.
func (s *Server) Start() error {
	logger.Logger.Info().Str("port", s.port).Msg("Starting API server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
