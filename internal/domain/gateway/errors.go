// Package gateway defines the core domain entities and errors for the
// ad-gated gateway flow: gateway definitions, visitor sessions, stage
// tokens, and task analytics events.
package gateway

import "errors"

// Sentinel errors for the session/token lifecycle. Handlers map these to
// HTTP statuses with errors.Is; services wrap them with context via %w.
var (
	// ErrTokenMalformed covers anything that cannot be decrypted or
	// deserialized. Treated as attacker input, never as a crash.
	ErrTokenMalformed = errors.New("stage token malformed")

	// ErrTokenExpired covers tokens that decrypt fine but fall outside
	// their freshness window.
	ErrTokenExpired = errors.New("stage token expired")

	// ErrInvalidProgression is returned when a claimed next stage is not
	// exactly one past the stage embedded in the presented token.
	ErrInvalidProgression = errors.New("invalid stage progression")

	// ErrAlreadyCompleted rejects advances against a finished session.
	ErrAlreadyCompleted = errors.New("gateway already completed")

	// ErrSessionNotFound covers both store misses and logical TTL expiry.
	ErrSessionNotFound = errors.New("session not found")

	// ErrGatewayNotFound is returned for unknown gateway IDs.
	ErrGatewayNotFound = errors.New("gateway not found")

	// ErrStoreUnavailable wraps datastore failures. Fatal for session and
	// token paths; analytics recording swallows it after logging.
	ErrStoreUnavailable = errors.New("store unavailable")
)
