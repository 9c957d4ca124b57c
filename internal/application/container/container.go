// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/NexusProtocols/nexus-gateway-go/internal/application/services"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/caching/manager"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/email"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/messaging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services (stateless singletons)
	GatewayService      *services.GatewayService
	SessionService      *services.SessionService
	AnalyticsService    *services.AnalyticsService
	ProgressionService  *services.ProgressionService
	AuthService         *services.AuthService
	NotificationService *services.NotificationService

	// Infrastructure
	TenantManager *tenant.Manager
	CacheManager  *manager.Manager
	Broadcaster   *messaging.LiveBroadcaster
	Logger        *logging.ChanneledLogger
	PerfTracker   *performance.Tracker
}

// NewContainer creates and wires all singleton services
func NewContainer(tenantManager *tenant.Manager, logger *logging.ChanneledLogger) *Container {
	perfTracker := performance.NewTracker(nil)
	broadcaster := messaging.NewLiveBroadcaster(logger)

	emailClient, err := email.NewClient()
	if err != nil {
		logger.System().Warn("Email notifications disabled", "reason", err.Error())
		emailClient = nil
	}

	gatewayService := services.NewGatewayService(logger, perfTracker)
	sessionService := services.NewSessionService(logger, perfTracker, gatewayService)
	analyticsService := services.NewAnalyticsService(logger, perfTracker, sessionService)
	notificationService := services.NewNotificationService(logger, emailClient)
	progressionService := services.NewProgressionService(
		logger, perfTracker,
		sessionService, gatewayService, analyticsService,
		broadcaster, notificationService,
	)

	return &Container{
		GatewayService:      gatewayService,
		SessionService:      sessionService,
		AnalyticsService:    analyticsService,
		ProgressionService:  progressionService,
		AuthService:         services.NewAuthService(logger),
		NotificationService: notificationService,

		TenantManager: tenantManager,
		CacheManager:  tenantManager.GetCacheManager(),
		Broadcaster:   broadcaster,
		Logger:        logger,
		PerfTracker:   perfTracker,
	}
}
