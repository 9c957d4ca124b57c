package services

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/security"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
)

// ErrInvalidCredentials is returned for any failed login attempt.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CreatorCredentials is the payload for creator registration and login.
type CreatorCredentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

// AuthResult carries a signed token plus who it was issued to.
type AuthResult struct {
	Token     string `json:"token"`
	CreatorID string `json:"creatorId"`
	Role      string `json:"role"`
}

// AuthService handles admin password auth and creator accounts. Creator
// passwords are stored bcrypt-hashed in the tenant database.
type AuthService struct {
	logger *logging.ChanneledLogger
	now    func() time.Time
}

// NewAuthService creates the auth service.
func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{logger: logger, now: time.Now}
}

// AuthenticateAdmin checks the tenant admin password and issues an
// admin token. The stored password may be a bcrypt hash or, for dev
// tenants, plaintext compared in constant time.
func (s *AuthService) AuthenticateAdmin(password string, tenantCtx *tenant.Context) (*AuthResult, error) {
	stored := tenantCtx.Config.AdminPassword
	if stored == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if strings.HasPrefix(stored, "$2") {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); err != nil {
			s.logger.Auth().Warn("Admin auth failed", "tenantId", tenantCtx.TenantID)
			return nil, ErrInvalidCredentials
		}
	} else if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		s.logger.Auth().Warn("Admin auth failed", "tenantId", tenantCtx.TenantID)
		return nil, ErrInvalidCredentials
	}

	token, err := security.GenerateCreatorToken("admin", "admin", tenantCtx.TenantID, tenantCtx.Config.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to issue admin token: %w", err)
	}
	return &AuthResult{Token: token, CreatorID: "admin", Role: "admin"}, nil
}

// RegisterCreator creates a creator account and issues its first token.
func (s *AuthService) RegisterCreator(creds *CreatorCredentials, tenantCtx *tenant.Context) (*AuthResult, error) {
	if creds.Email == "" || len(creds.Password) < 8 {
		return nil, fmt.Errorf("email and a password of at least 8 characters are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	creatorID := security.GenerateULID()
	_, err = tenantCtx.Database.Exec(
		`INSERT INTO creators (id, email, password_hash, display_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		creatorID, strings.ToLower(creds.Email), string(hash), creds.DisplayName, s.now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create creator: %w", err)
	}

	token, err := security.GenerateCreatorToken(creatorID, "creator", tenantCtx.TenantID, tenantCtx.Config.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to issue creator token: %w", err)
	}

	s.logger.Auth().Info("Creator registered", "tenantId", tenantCtx.TenantID, "creatorId", creatorID)
	return &AuthResult{Token: token, CreatorID: creatorID, Role: "creator"}, nil
}

// LoginCreator verifies creator credentials and issues a token.
func (s *AuthService) LoginCreator(creds *CreatorCredentials, tenantCtx *tenant.Context) (*AuthResult, error) {
	var creatorID, passwordHash string
	err := tenantCtx.Database.QueryRow(
		`SELECT id, password_hash FROM creators WHERE email = ?`,
		strings.ToLower(creds.Email),
	).Scan(&creatorID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up creator: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(creds.Password)); err != nil {
		s.logger.Auth().Warn("Creator auth failed", "tenantId", tenantCtx.TenantID, "creatorId", creatorID)
		return nil, ErrInvalidCredentials
	}

	token, err := security.GenerateCreatorToken(creatorID, "creator", tenantCtx.TenantID, tenantCtx.Config.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to issue creator token: %w", err)
	}
	return &AuthResult{Token: token, CreatorID: creatorID, Role: "creator"}, nil
}
