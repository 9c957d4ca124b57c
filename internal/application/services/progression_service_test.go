package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
)

func TestAdvanceStageHappyPathToCompletion(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	token := envelope.Token
	for stage := 1; stage <= 3; stage++ {
		result, err := env.progression.AdvanceStage(&AdvanceRequest{
			Token:     token,
			NextStage: stage,
		}, env.tenantCtx)
		require.NoError(t, err, "advance to stage %d", stage)
		assert.Equal(t, stage, result.Stage)

		if stage < 3 {
			assert.False(t, result.Completed)
			assert.Empty(t, result.RewardURL, "reward must stay hidden before the final stage")
		} else {
			assert.True(t, result.Completed)
			assert.Equal(t, gw.RewardURL, result.RewardURL)
		}
		token = result.Token
	}

	session, err := env.sessionSvc.GetSession(envelope.Session.ID, env.tenantCtx)
	require.NoError(t, err)
	assert.True(t, session.Completed)
	assert.Equal(t, 3, session.CurrentStage)
	require.NotNil(t, session.CompletedAt)

	// Durable copy matches the cache.
	stored, err := env.sessionRepo.GetByID(session.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.Equal(t, 3, stored.CurrentStage)

	assert.Len(t, env.eventRepo.byAction(gatewayDomain.ActionStageAdvance), 2)
	assert.Len(t, env.eventRepo.byAction(gatewayDomain.ActionGatewayDone), 1)
}

func TestAdvanceStageRejectsSameStage(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	_, err := env.progression.AdvanceStage(&AdvanceRequest{
		Token:     envelope.Token,
		NextStage: 0,
	}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrInvalidProgression)
}

func TestAdvanceStageRejectsSkip(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	_, err := env.progression.AdvanceStage(&AdvanceRequest{
		Token:     envelope.Token,
		NextStage: 2,
	}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrInvalidProgression)

	// A rejected advance leaves the session untouched.
	session, getErr := env.sessionSvc.GetSession(envelope.Session.ID, env.tenantCtx)
	require.NoError(t, getErr)
	assert.Equal(t, 0, session.CurrentStage)
}

func TestAdvanceStageRejectsTokenReplay(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	_, err := env.progression.AdvanceStage(&AdvanceRequest{
		Token:     envelope.Token,
		NextStage: 1,
	}, env.tenantCtx)
	require.NoError(t, err)

	// The consumed stage-0 token cannot advance again.
	_, err = env.progression.AdvanceStage(&AdvanceRequest{
		Token:     envelope.Token,
		NextStage: 1,
	}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrInvalidProgression)
}

func TestAdvanceStageRejectsCompletedSession(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 1)
	envelope := env.openSession(t, gw.ID)

	result, err := env.progression.AdvanceStage(&AdvanceRequest{
		Token:     envelope.Token,
		NextStage: 1,
	}, env.tenantCtx)
	require.NoError(t, err)
	require.True(t, result.Completed)

	_, err = env.progression.AdvanceStage(&AdvanceRequest{
		Token:     result.Token,
		NextStage: 2,
	}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrAlreadyCompleted)
}

func TestAdvanceStageRejectsStaleToken(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	env.advanceClock(31 * time.Second)

	_, err := env.progression.AdvanceStage(&AdvanceRequest{
		Token:     envelope.Token,
		NextStage: 1,
	}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrTokenExpired)

	session, getErr := env.sessionSvc.GetSession(envelope.Session.ID, env.tenantCtx)
	require.NoError(t, getErr)
	assert.Equal(t, 0, session.CurrentStage)
}

func TestAdvanceStageAcceptsTokenWithinWindow(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	env.advanceClock(29 * time.Second)

	result, err := env.progression.AdvanceStage(&AdvanceRequest{
		Token:     envelope.Token,
		NextStage: 1,
	}, env.tenantCtx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stage)
}

func TestAdvanceStageRejectsTamperedToken(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	raw := []byte(envelope.Token)
	raw[len(raw)/2] ^= 0x01

	_, err := env.progression.AdvanceStage(&AdvanceRequest{
		Token:     string(raw),
		NextStage: 1,
	}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrTokenMalformed)
}

func TestAdvanceStageRejectsSessionMismatch(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	_, err := env.progression.AdvanceStage(&AdvanceRequest{
		Token:     envelope.Token,
		SessionID: "someone-else",
		NextStage: 1,
	}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrTokenMalformed)
}

func TestAdvanceStageRejectsUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	env.seedGateway(t, "gw-1", 3)

	token, err := env.tenantCtx.StageCodec.Mint(securityClaims("gw-1", "ghost-session", 0))
	require.NoError(t, err)

	_, err = env.progression.AdvanceStage(&AdvanceRequest{
		Token:     token,
		NextStage: 1,
	}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrSessionNotFound)
}

func TestAdvanceStageRejectsExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	// Past the session TTL both the cache and the database fallback
	// must treat the record as gone.
	env.advanceClock(31 * time.Minute)

	token, err := env.sessionSvc.mintToken(envelope.Session, env.tenantCtx)
	require.NoError(t, err)

	_, err = env.progression.AdvanceStage(&AdvanceRequest{
		Token:     token,
		NextStage: 1,
	}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrSessionNotFound)
}

func TestAdvanceStagePersistenceFailureSurfaces(t *testing.T) {
	env := newTestEnv(t)
	gw := env.seedGateway(t, "gw-1", 3)
	envelope := env.openSession(t, gw.ID)

	env.sessionRepo.failUpdate = true

	_, err := env.progression.AdvanceStage(&AdvanceRequest{
		Token:     envelope.Token,
		NextStage: 1,
	}, env.tenantCtx)
	requireIs(t, err, gatewayDomain.ErrStoreUnavailable)

	// The failed advance must not move the session.
	session, getErr := env.sessionSvc.GetSession(envelope.Session.ID, env.tenantCtx)
	require.NoError(t, getErr)
	assert.Equal(t, 0, session.CurrentStage)

	// Once the store recovers the original token is still the valid
	// credential and the retry lands.
	env.sessionRepo.failUpdate = false
	result, err := env.progression.AdvanceStage(&AdvanceRequest{
		Token:     envelope.Token,
		NextStage: 1,
	}, env.tenantCtx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stage)

	stored, err := env.sessionRepo.GetByID(envelope.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentStage)
}
