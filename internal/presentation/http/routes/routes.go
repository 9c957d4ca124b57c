// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/NexusProtocols/nexus-gateway-go/internal/application/container"
	"github.com/NexusProtocols/nexus-gateway-go/internal/presentation/http/handlers"
	"github.com/NexusProtocols/nexus-gateway-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(c *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	sessionHandlers := handlers.NewSessionHandlers(c.SessionService, c.Logger, c.PerfTracker)
	progressionHandlers := handlers.NewProgressionHandlers(c.ProgressionService, c.Logger, c.PerfTracker)
	taskHandlers := handlers.NewTaskHandlers(c.AnalyticsService, c.Logger, c.PerfTracker)
	gatewayHandlers := handlers.NewGatewayHandlers(c.GatewayService, c.Logger, c.PerfTracker)
	authHandlers := handlers.NewAuthHandlers(c.AuthService, c.Logger, c.PerfTracker)
	liveHandlers := handlers.NewLiveHandlers(c.Broadcaster, c.Logger)
	healthHandlers := handlers.NewHealthHandlers(c.TenantManager, c.PerfTracker)

	api := r.Group("/api/v1")
	api.Use(middleware.TenantMiddleware(c.TenantManager, c.PerfTracker))
	{
		api.GET("/health", healthHandlers.GetHealth)

		// Visitor flow: open a session, track tasks, advance stages.
		api.POST("/sessions", sessionHandlers.PostSession)
		api.GET("/sessions/:sessionId", sessionHandlers.GetSession)
		api.POST("/sessions/:sessionId/token", sessionHandlers.PostRefreshToken)
		api.POST("/progression/advance", progressionHandlers.PostAdvance)
		api.POST("/tasks/start", taskHandlers.PostTaskStart)
		api.POST("/tasks/complete", taskHandlers.PostTaskComplete)

		// Public gateway view, no reward URL.
		api.GET("/gateways/:gatewayId", gatewayHandlers.GetGateway)

		// Auth
		auth := api.Group("/auth")
		{
			auth.POST("/admin", authHandlers.PostAdminLogin)
			auth.POST("/register", authHandlers.PostRegister)
			auth.POST("/login", authHandlers.PostLogin)
		}

		// Creator routes
		creator := api.Group("")
		creator.Use(authHandlers.AuthMiddleware())
		{
			creator.POST("/gateways", gatewayHandlers.PostGateway)
			creator.GET("/gateways", gatewayHandlers.GetMyGateways)
			creator.PUT("/gateways/:gatewayId", gatewayHandlers.PutGateway)
			creator.DELETE("/gateways/:gatewayId", gatewayHandlers.DeleteGateway)
			creator.GET("/live/gateways/:gatewayId", liveHandlers.GetGatewayFeed)
		}
	}

	return r
}
