package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
)

func TestCreateSessionMintsStageZeroToken(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)

	envelope := env.openSession(t, gw.ID)
	assert.Equal(t, 0, envelope.Session.CurrentStage)
	assert.Equal(t, env.current.Add(config.SessionTTL), envelope.Session.ExpiresAt)

	claims, err := env.tenantCtx.StageCodec.Parse(envelope.Token)
	require.NoError(t, err)
	assert.Equal(t, envelope.Session.ID, claims.SessionID)
	assert.Equal(t, gw.ID, claims.GatewayID)
	assert.Equal(t, 0, claims.Stage)
	assert.False(t, claims.Completed)
}

func TestCreateSessionUnknownGateway(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessionSvc.CreateSession(&CreateSessionRequest{GatewayID: "nope"}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrGatewayNotFound)
}

func TestCreateSessionInactiveGateway(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	gw.IsActive = false
	env.tenantCtx.CacheManager.SetGateway(testTenantID, gw)

	_, err := env.sessionSvc.CreateSession(&CreateSessionRequest{GatewayID: gw.ID}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrGatewayNotFound)
}

func TestGetSessionRewarmsFromDatabase(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	// Simulate a restart: the cache loses the session but the durable
	// copy survives.
	env.evictSession(envelope.Session.ID)

	session, err := env.sessionSvc.GetSession(envelope.Session.ID, env.tenantCtx)
	require.NoError(t, err)
	assert.Equal(t, envelope.Session.ID, session.ID)

	_, found := env.tenantCtx.CacheManager.GetSession(testTenantID, session.ID)
	assert.True(t, found, "database fallback should re-warm the cache")
}

func TestGetSessionExpiredInDatabase(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	env.evictSession(envelope.Session.ID)
	env.advanceClock(config.SessionTTL + time.Minute)

	_, err := env.sessionSvc.GetSession(envelope.Session.ID, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrSessionNotFound)
}

func TestRefreshTokenPreservesState(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	result, err := env.progression.AdvanceStage(&AdvanceRequest{
		Token:     envelope.Token,
		NextStage: 1,
	}, env.tenantCtx)
	require.NoError(t, err)

	refreshed, err := env.sessionSvc.RefreshToken(envelope.Session.ID, env.tenantCtx)
	require.NoError(t, err)

	claims, err := env.tenantCtx.StageCodec.Parse(refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Stage, claims.Stage)
	assert.Equal(t, 1, refreshed.Session.CurrentStage)
}
