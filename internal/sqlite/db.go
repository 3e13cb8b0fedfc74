package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/vocabtrainer/server/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// A single connection serializes writes against modernc's pure-Go
	// driver; concurrent writers otherwise surface as "database is
	// locked" rather than blocking.
	db.SetMaxOpenConns(1)

	return &DB{db}, nil
}

// RunMigrations applies the embedded schema. Safe to call against a
// fresh database only; the schema is the target, not a migration path.
func (db *DB) RunMigrations() error {
	data, err := migrations.FS.ReadFile("001_initial_schema.up.sql")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	if _, err := db.Exec(string(data)); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
