// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NexusProtocols/nexus-gateway-go/internal/application/container"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/caching/cleanup"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
	"github.com/NexusProtocols/nexus-gateway-go/internal/presentation/http/server"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete multi-tenant startup sequence and
// blocks until the process receives a shutdown signal.
func Initialize() error {
	setupGinMode()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("Initializing nexus gateway server")

	// Tenant system: discover, provision if empty, activate.
	tenantManager := tenant.NewManager(logger)
	activeCount, err := tenantManager.ActivateAllTenants()
	if err != nil {
		return fmt.Errorf("tenant activation failed: %w", err)
	}
	logger.Startup().Info("Tenants activated", "count", activeCount)

	appContainer := container.NewContainer(tenantManager, logger)
	logger.Startup().Info("Dependency injection container created")

	// Background session expiry sweeps.
	cleanupWorker := cleanup.NewWorker(appContainer.CacheManager, tenantManager, logger)
	go cleanupWorker.Start(ctx)

	port := config.Port
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"activeTenants", activeCount,
		"port", port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown")

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	}

	if err := tenantManager.Close(); err != nil {
		logger.Shutdown().Error("Error closing tenant manager", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))
	return nil
}

// setupGinMode configures the gin runtime mode before any engine is built.
func setupGinMode() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}
