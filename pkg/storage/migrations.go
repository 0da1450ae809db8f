package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: Initial schema
	`CREATE TABLE IF NOT EXISTS cycles (
		id         TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		took_ms    INTEGER NOT NULL DEFAULT 0,
		fetched    INTEGER NOT NULL DEFAULT 0,
		matched    INTEGER NOT NULL DEFAULT 0,
		notified   INTEGER NOT NULL DEFAULT 0,
		result     TEXT NOT NULL,
		error      TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);

	CREATE TABLE IF NOT EXISTS notifications (
		id          TEXT PRIMARY KEY,
		cycle_id    TEXT NOT NULL,
		address     TEXT NOT NULL,
		chain_id    TEXT NOT NULL DEFAULT '',
		exchange    TEXT NOT NULL DEFAULT '',
		apr         REAL NOT NULL DEFAULT 0.0,
		earn_fee    REAL NOT NULL DEFAULT 0.0,
		volume      REAL NOT NULL DEFAULT 0.0,
		reason      TEXT NOT NULL DEFAULT '',
		notified_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_address ON notifications(address);
	CREATE INDEX IF NOT EXISTS idx_notifications_chain ON notifications(chain_id);
	CREATE INDEX IF NOT EXISTS idx_notifications_notified_at ON notifications(notified_at);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	// Ensure migration tracking table exists
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
