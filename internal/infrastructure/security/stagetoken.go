package security

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
)

// StageClaims is the structured payload sealed inside a stage token.
// Short JSON keys keep the sealed token compact.
type StageClaims struct {
	GatewayID string `json:"gid"`
	SessionID string `json:"sid"`
	UserID    string `json:"uid,omitempty"`
	Stage     int    `json:"stg"`
	Completed bool   `json:"cmp,omitempty"`
	IssuedAt  int64  `json:"iat"` // unix milliseconds
	Nonce     string `json:"non"`
}

// IssuedTime returns the issuance timestamp as a time.Time.
func (c *StageClaims) IssuedTime() time.Time {
	return time.UnixMilli(c.IssuedAt)
}

// StageTokenCodec mints and parses encrypted stage tokens. Mint and
// Parse are pure and safe for concurrent use; the clock is injectable
// for tests.
type StageTokenCodec struct {
	key             []byte
	maxAge          time.Duration
	completedMaxAge time.Duration
	now             func() time.Time
}

// NewStageTokenCodec derives the sealing key from the tenant secret and
// salt. Completed tokens get a longer freshness window so a visitor can
// still present one after finishing the flow.
func NewStageTokenCodec(secret, salt string, maxAge, completedMaxAge time.Duration) (*StageTokenCodec, error) {
	key, err := DeriveKey(secret, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive stage token key: %w", err)
	}

	return &StageTokenCodec{
		key:             key,
		maxAge:          maxAge,
		completedMaxAge: completedMaxAge,
		now:             time.Now,
	}, nil
}

// WithClock overrides the codec's time source. Used by tests.
func (c *StageTokenCodec) WithClock(now func() time.Time) *StageTokenCodec {
	c.now = now
	return c
}

// Mint seals the claims into an opaque token, stamping a fresh issuance
// time and nonce. Two mints of identical claims always produce distinct
// tokens; both parse independently.
func (c *StageTokenCodec) Mint(claims StageClaims) (string, error) {
	nonce, err := GenerateNonce()
	if err != nil {
		return "", err
	}
	claims.Nonce = nonce
	claims.IssuedAt = c.now().UTC().UnixMilli()

	payload, err := json.Marshal(&claims)
	if err != nil {
		return "", err
	}

	token, err := Encrypt(payload, c.key)
	if err != nil {
		return "", fmt.Errorf("failed to seal stage token: %w", err)
	}

	return token, nil
}

// Parse opens a token and validates its freshness. Tokens that cannot
// be decrypted or deserialized fail with ErrTokenMalformed; stale
// tokens fail with ErrTokenExpired so callers can message users
// appropriately.
func (c *StageTokenCodec) Parse(token string) (*StageClaims, error) {
	payload, err := Decrypt(token, c.key)
	if err != nil {
		return nil, gateway.ErrTokenMalformed
	}

	var claims StageClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, gateway.ErrTokenMalformed
	}

	if claims.GatewayID == "" || claims.SessionID == "" || claims.Stage < 0 || claims.IssuedAt <= 0 {
		return nil, gateway.ErrTokenMalformed
	}

	maxAge := c.maxAge
	if claims.Completed {
		maxAge = c.completedMaxAge
	}

	if c.now().UTC().Sub(claims.IssuedTime()) > maxAge {
		return nil, gateway.ErrTokenExpired
	}

	return &claims, nil
}

// Age returns how long ago the claims were issued according to the
// codec's clock.
func (c *StageTokenCodec) Age(claims *StageClaims) time.Duration {
	return c.now().UTC().Sub(claims.IssuedTime())
}
