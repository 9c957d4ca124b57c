// Package tenant manages tenant-specific configurations and context,
// isolating multi-tenancy logic from the rest of the application.
package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/security"
)

// DefaultTenantID is the tenant used when no X-Tenant-ID header is sent.
const DefaultTenantID = "default"

// Config represents the structure of a single tenant's configuration
type Config struct {
	TenantID       string `json:"tenantId"`
	Status         string `json:"status"`
	JWTSecret      string `json:"JWT_SECRET"`
	AESSecret      string `json:"AES_SECRET"`
	TokenSalt      string `json:"TOKEN_SALT"`
	AdminPassword  string `json:"ADMIN_PASSWORD,omitempty"`
	TursoDatabase  string `json:"TURSO_DATABASE_URL,omitempty"`
	TursoToken     string `json:"TURSO_AUTH_TOKEN,omitempty"`
	TursoEnabled   bool   `json:"TURSO_ENABLED"`
	NotifyEmail    string `json:"NOTIFY_EMAIL,omitempty"`
	DiscordWebhook string `json:"DISCORD_WEBHOOK_URL,omitempty"`
	SQLitePath     string `json:"-"`
}

func configRoot() (string, error) {
	if root := os.Getenv("NEXUS_CONFIG_ROOT"); root != "" {
		return root, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find user home directory: %w", err)
	}
	return filepath.Join(homeDir, "nexus-go-server"), nil
}

// LoadTenantConfig loads configuration for a specific tenant from its env.json file.
func LoadTenantConfig(tenantID string, logger *logging.ChanneledLogger) (*Config, error) {
	root, err := configRoot()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(root, "config", tenantID, "env.json")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("tenant config file not found at %s", configPath)
	}

	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not read tenant config file: %w", err)
	}

	var tenantConfig Config
	if err := json.Unmarshal(configFile, &tenantConfig); err != nil {
		return nil, fmt.Errorf("could not parse tenant config json: %w", err)
	}

	tenantConfig.TenantID = tenantID
	tenantConfig.SQLitePath = filepath.Join(root, "db", tenantID, "gateway.db")
	if tenantConfig.Status == "" {
		tenantConfig.Status = "active"
	}

	if logger != nil {
		logger.Tenant().Debug("Loaded tenant config", "tenantId", tenantID, "tursoEnabled", tenantConfig.TursoEnabled)
	}
	return &tenantConfig, nil
}

// ProvisionDefaultTenant writes an env.json with generated secrets for
// the default tenant when none exists yet. Returns true when a new
// config was created.
func ProvisionDefaultTenant(logger *logging.ChanneledLogger) (bool, error) {
	root, err := configRoot()
	if err != nil {
		return false, err
	}

	configDir := filepath.Join(root, "config", DefaultTenantID)
	configPath := filepath.Join(configDir, "env.json")
	if _, err := os.Stat(configPath); err == nil {
		return false, nil
	}

	jwtSecret, err := security.GenerateSecureKey(64)
	if err != nil {
		return false, err
	}
	aesSecret, err := security.GenerateSecureKey(64)
	if err != nil {
		return false, err
	}
	tokenSalt, err := security.GenerateSecureKey(32)
	if err != nil {
		return false, err
	}

	cfg := &Config{
		TenantID:  DefaultTenantID,
		Status:    "active",
		JWTSecret: jwtSecret,
		AESSecret: aesSecret,
		TokenSalt: tokenSalt,
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return false, fmt.Errorf("failed to create tenant config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return false, fmt.Errorf("failed to write tenant config: %w", err)
	}

	if logger != nil {
		logger.Tenant().Info("Provisioned default tenant config", "path", configPath)
	}
	return true, nil
}

// ListTenants returns the IDs of all tenants that have a config directory.
func ListTenants() ([]string, error) {
	root, err := configRoot()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(root, "config"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var tenants []string
	for _, entry := range entries {
		if entry.IsDir() {
			tenants = append(tenants, entry.Name())
		}
	}
	return tenants, nil
}
