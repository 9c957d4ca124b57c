package handlers

import (
	"errors"
	"net/http"

	"github.com/NexusProtocols/nexus-gateway-go/internal/application/services"
	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/gin-gonic/gin"
)

// respondError maps domain sentinel errors onto HTTP status codes.
// Unknown errors surface as 500 with a generic message so internal
// details never leak to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gatewayDomain.ErrTokenMalformed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
	case errors.Is(err, gatewayDomain.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
	case errors.Is(err, gatewayDomain.ErrInvalidProgression):
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid stage progression"})
	case errors.Is(err, gatewayDomain.ErrAlreadyCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "gateway already completed"})
	case errors.Is(err, gatewayDomain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, gatewayDomain.ErrGatewayNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "gateway not found"})
	case errors.Is(err, gatewayDomain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
