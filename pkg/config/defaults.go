// Package config provides centralized default values for the gateway platform
package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err == nil {
			log.Println("Loaded configuration overrides from .env file")
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Cache Configuration
	MaxTenants           int
	MaxSessionsPerTenant int

	// Database Pool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int

	// Session and Token TTLs
	SessionTTL           time.Duration
	StageTokenMaxAge     time.Duration
	CompletedTokenMaxAge time.Duration
	AdvanceWindow        time.Duration

	// Gateway Limits
	MaxStagesPerGateway int
	MaxTasksPerStage    int

	// Live Dashboard
	MaxLiveConnectionsPerGateway int
	LiveWriteTimeout             time.Duration
	LivePingInterval             time.Duration

	// Cleanup Intervals
	CleanupInterval time.Duration
	GatewayCacheTTL time.Duration

	// Slow query threshold for database logging
	SlowQueryThreshold time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Memory Management
	MaxTenants = getEnvInt("MAX_TENANTS", 5)
	MaxSessionsPerTenant = getEnvInt("MAX_SESSIONS_PER_TENANT", 5000)

	// Database Pool
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 3)

	// Session and Token TTLs
	SessionTTL = time.Duration(getEnvInt("SESSION_TTL_MINUTES", 30)) * time.Minute
	StageTokenMaxAge = time.Duration(getEnvInt("STAGE_TOKEN_MAX_AGE_MINUTES", 30)) * time.Minute
	CompletedTokenMaxAge = time.Duration(getEnvInt("COMPLETED_TOKEN_MAX_AGE_MINUTES", 60)) * time.Minute
	AdvanceWindow = time.Duration(getEnvInt("ADVANCE_WINDOW_SECONDS", 30)) * time.Second

	// Gateway Limits
	MaxStagesPerGateway = getEnvInt("MAX_STAGES_PER_GATEWAY", 10)
	MaxTasksPerStage = getEnvInt("MAX_TASKS_PER_STAGE", 8)

	// Live Dashboard
	MaxLiveConnectionsPerGateway = getEnvInt("MAX_LIVE_CONNECTIONS_PER_GATEWAY", 25)
	LiveWriteTimeout = getEnvDuration("LIVE_WRITE_TIMEOUT", 10*time.Second)
	LivePingInterval = getEnvDuration("LIVE_PING_INTERVAL", 30*time.Second)

	// Cleanup Intervals
	CleanupInterval = time.Duration(getEnvInt("CACHE_CLEANUP_INTERVAL_MINUTES", 15)) * time.Minute
	GatewayCacheTTL = time.Duration(getEnvInt("GATEWAY_CACHE_TTL_HOURS", 24)) * time.Hour

	// Database
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 50*time.Millisecond)
}
