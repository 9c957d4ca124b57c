package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/security"
)

func TestAuthenticateAdminPlaintext(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.auth.AuthenticateAdmin("letmein-admin", env.tenantCtx)
	require.NoError(t, err)
	assert.Equal(t, "admin", result.Role)
	assert.NotEmpty(t, result.Token)

	claims, err := security.ValidateJWT(result.Token, env.tenantCtx.Config.JWTSecret)
	require.NoError(t, err)
	creatorID, role := security.GetCreatorFromClaims(claims)
	assert.Equal(t, "admin", creatorID)
	assert.Equal(t, "admin", role)
}

func TestAuthenticateAdminWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.AuthenticateAdmin("wrong", env.tenantCtx)
	requireIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.AuthenticateAdmin("", env.tenantCtx)
	requireIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateAdminBcryptHash(t *testing.T) {
	env := newTestEnv(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2-secure"), bcrypt.MinCost)
	require.NoError(t, err)
	env.tenantCtx.Config.AdminPassword = string(hash)

	_, err = env.auth.AuthenticateAdmin("hunter2-secure", env.tenantCtx)
	require.NoError(t, err)

	_, err = env.auth.AuthenticateAdmin("hunter2", env.tenantCtx)
	requireIs(t, err, ErrInvalidCredentials)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.auth.AuthenticateAdmin("letmein-admin", env.tenantCtx)
	require.NoError(t, err)

	_, err = security.ValidateJWT(result.Token, "some-other-secret")
	assert.Error(t, err)
}
