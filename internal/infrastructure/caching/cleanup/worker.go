// Package cleanup provides the background session-expiry worker.
package cleanup

import (
	"context"
	"time"

	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/caching/manager"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
)

// Worker periodically purges expired sessions from every active
// tenant's cache. Expiry is enforced logically on every read; the
// worker only reclaims memory.
type Worker struct {
	cache         *manager.Manager
	tenantManager *tenant.Manager
	logger        *logging.ChanneledLogger
	interval      time.Duration
}

// NewWorker creates a cleanup worker running at config.CleanupInterval.
func NewWorker(cache *manager.Manager, tenantManager *tenant.Manager, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		cache:         cache,
		tenantManager: tenantManager,
		logger:        logger,
		interval:      config.CleanupInterval,
	}
}

// Start runs the cleanup loop until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.System().Info("Session cleanup worker started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown().Info("Session cleanup worker stopping")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *Worker) sweep() {
	start := time.Now()
	total := 0
	for _, tenantID := range w.tenantManager.ActiveTenantIDs() {
		total += w.cache.PurgeExpiredSessions(tenantID)
	}
	if total > 0 {
		w.logger.Cache().Info("Expired sessions purged", "count", total, "duration", time.Since(start))
	}
}
