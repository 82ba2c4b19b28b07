// Package db provides the database connection and schema for scriptd.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database and initializes the schema
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// initSchema creates all required tables
func initSchema(db *sql.DB) error {
	// Load journal - append-only history of resource and batch outcomes.
	// Multiple events per resource are expected (loading, loaded, failed).
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS load_journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			url TEXT,
			batch_id TEXT,
			error TEXT,
			payload TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_journal_type_ts ON load_journal(event_type, timestamp);
		CREATE INDEX IF NOT EXISTS idx_journal_url ON load_journal(url, event_type);
		CREATE INDEX IF NOT EXISTS idx_journal_batch ON load_journal(batch_id) WHERE batch_id IS NOT NULL;
	`)
	if err != nil {
		return fmt.Errorf("failed to create load_journal table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
