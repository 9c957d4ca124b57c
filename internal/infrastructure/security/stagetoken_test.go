package security

import (
	"testing"
	"time"

	"github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, now func() time.Time) *StageTokenCodec {
	t.Helper()
	codec, err := NewStageTokenCodec("test-secret", "test-salt", 30*time.Minute, 60*time.Minute)
	require.NoError(t, err)
	if now != nil {
		codec.WithClock(now)
	}
	return codec
}

func TestMintParseRoundTrip(t *testing.T) {
	codec := newTestCodec(t, nil)

	token, err := codec.Mint(StageClaims{
		GatewayID: "g1",
		SessionID: "s1",
		UserID:    "u1",
		Stage:     3,
	})
	require.NoError(t, err)

	claims, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "g1", claims.GatewayID)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, 3, claims.Stage)
	assert.False(t, claims.Completed)
	assert.NotEmpty(t, claims.Nonce)
	assert.Positive(t, claims.IssuedAt)
}

func TestMintProducesDistinctTokens(t *testing.T) {
	codec := newTestCodec(t, nil)
	claims := StageClaims{GatewayID: "g1", SessionID: "s1", Stage: 1}

	a, err := codec.Mint(claims)
	require.NoError(t, err)
	b, err := codec.Mint(claims)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	// Both must parse independently.
	_, err = codec.Parse(a)
	require.NoError(t, err)
	_, err = codec.Parse(b)
	require.NoError(t, err)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	codec := newTestCodec(t, nil)

	token, err := codec.Mint(StageClaims{GatewayID: "g1", SessionID: "s1", Stage: 1})
	require.NoError(t, err)

	tampered := []byte(token)
	for i := range tampered {
		original := tampered[i]
		if original == '+' || original == '/' || original == '=' {
			continue
		}
		if original == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}
		_, err := codec.Parse(string(tampered))
		assert.ErrorIs(t, err, gateway.ErrTokenMalformed, "flip at offset %d", i)
		tampered[i] = original
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	codec := newTestCodec(t, nil)

	for _, input := range []string{"", "abc", "!!!!"} {
		_, err := codec.Parse(input)
		assert.ErrorIs(t, err, gateway.ErrTokenMalformed)
	}
}

func TestParseExpiryBoundary(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := issued
	codec := newTestCodec(t, func() time.Time { return current })

	token, err := codec.Mint(StageClaims{GatewayID: "g1", SessionID: "s1", Stage: 0})
	require.NoError(t, err)

	// Just inside the window.
	current = issued.Add(30*time.Minute - time.Millisecond)
	_, err = codec.Parse(token)
	require.NoError(t, err)

	// Just past the window.
	current = issued.Add(30*time.Minute + time.Millisecond)
	_, err = codec.Parse(token)
	assert.ErrorIs(t, err, gateway.ErrTokenExpired)
}

func TestCompletedTokensGetLongerWindow(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := issued
	codec := newTestCodec(t, func() time.Time { return current })

	token, err := codec.Mint(StageClaims{GatewayID: "g1", SessionID: "s1", Stage: 2, Completed: true})
	require.NoError(t, err)

	current = issued.Add(45 * time.Minute)
	claims, err := codec.Parse(token)
	require.NoError(t, err)
	assert.True(t, claims.Completed)

	current = issued.Add(60*time.Minute + time.Millisecond)
	_, err = codec.Parse(token)
	assert.ErrorIs(t, err, gateway.ErrTokenExpired)
}

func TestParseRejectsTokenFromRotatedSalt(t *testing.T) {
	codec, err := NewStageTokenCodec("secret", "salt-v1", 30*time.Minute, 60*time.Minute)
	require.NoError(t, err)
	rotated, err := NewStageTokenCodec("secret", "salt-v2", 30*time.Minute, 60*time.Minute)
	require.NoError(t, err)

	token, err := codec.Mint(StageClaims{GatewayID: "g1", SessionID: "s1", Stage: 0})
	require.NoError(t, err)

	_, err = rotated.Parse(token)
	assert.ErrorIs(t, err, gateway.ErrTokenMalformed)
}

func TestAge(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := issued
	codec := newTestCodec(t, func() time.Time { return current })

	token, err := codec.Mint(StageClaims{GatewayID: "g1", SessionID: "s1", Stage: 0})
	require.NoError(t, err)
	claims, err := codec.Parse(token)
	require.NoError(t, err)

	current = issued.Add(12 * time.Second)
	assert.Equal(t, 12*time.Second, codec.Age(claims))
}
