// Package server provides HTTP server initialization and management.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/NexusProtocols/nexus-gateway-go/internal/application/container"
	"github.com/NexusProtocols/nexus-gateway-go/internal/presentation/http/routes"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
)

// Server wraps the HTTP listener around the wired service container
type Server struct {
	httpServer *http.Server
	container  *container.Container
}

// New builds the HTTP server with routes bound to the container
func New(port string, container *container.Container) *Server {
	router := routes.SetupRoutes(container)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	return &Server{
		httpServer: httpServer,
		container:  container,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.container.Logger.Startup().Info("HTTP server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.container.Logger.Shutdown().Info("Draining HTTP server")
	return s.httpServer.Shutdown(ctx)
}
