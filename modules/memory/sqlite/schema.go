package sqlite

import (
	"database/sql"
	"fmt"
)

// schemaVersion is bumped whenever schemaStatements change incompatibly.
const schemaVersion = 1

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id      TEXT PRIMARY KEY,
		last_active     INTEGER NOT NULL,
		total_messages  INTEGER NOT NULL DEFAULT 0,
		dominant_topics TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		topics     TEXT NOT NULL DEFAULT '[]',
		metadata   TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_last_active ON sessions(last_active)`,
}

// migrate applies the schema idempotently. Statements use IF NOT EXISTS so
// re-running against an up-to-date database is a no-op.
func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin migration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: apply schema: %w", err)
		}
	}

	var current int
	err = tx.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("sqlite: record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("sqlite: read schema version: %w", err)
	case current > schemaVersion:
		return fmt.Errorf("sqlite: database schema version %d is newer than supported %d", current, schemaVersion)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit migration: %w", err)
	}
	return nil
}
