package database

import "fmt"

// schema holds the bootstrap DDL for a tenant database. Statements use
// IF NOT EXISTS so activation is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS gateways (
		id TEXT PRIMARY KEY,
		creator_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		reward_url TEXT NOT NULL,
		total_stages INTEGER NOT NULL,
		stages_json TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_gateways_creator ON gateways(creator_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		gateway_id TEXT NOT NULL,
		user_id TEXT,
		completed_tasks TEXT NOT NULL DEFAULT '[]',
		current_stage INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		completed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		FOREIGN KEY (gateway_id) REFERENCES gateways(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_gateway ON sessions(gateway_id)`,
	`CREATE TABLE IF NOT EXISTS task_events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		gateway_id TEXT NOT NULL,
		task_id TEXT,
		action TEXT NOT NULL,
		stage INTEGER,
		user_agent TEXT,
		ip_address TEXT,
		creator_id TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_events_session ON task_events(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_events_gateway ON task_events(gateway_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS creators (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		display_name TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
}

// Bootstrap creates the tenant schema if it does not exist yet.
func (db *DB) Bootstrap() error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}
