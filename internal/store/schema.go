// Package store provides the SQLite-backed registry store with optional
// FTS5 full-text plugin search.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS package (
	package_id   TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	keywords     TEXT NOT NULL DEFAULT '[]',
	sys_keywords TEXT NOT NULL DEFAULT '[]',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS package_details (
	package_id   TEXT PRIMARY KEY REFERENCES package(package_id),
	like_count   INTEGER NOT NULL DEFAULT 0,
	rating_count INTEGER NOT NULL DEFAULT 0,
	rating_sum   INTEGER NOT NULL DEFAULT 0,
	last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS package_like (
	package_id TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	date       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (package_id, user_id)
);

CREATE TABLE IF NOT EXISTS package_rating (
	package_id   TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	rating       INTEGER NOT NULL,
	last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (package_id, user_id)
);

CREATE TABLE IF NOT EXISTS package_readme (
	package_id      TEXT NOT NULL,
	package_version TEXT NOT NULL,
	readme          TEXT NOT NULL,
	last_updated    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (package_id, package_version)
);

CREATE TABLE IF NOT EXISTS session (
	token      TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_package_user ON package(user_id);
CREATE INDEX IF NOT EXISTS idx_package_category ON package(category);
`

// DB wraps a sql.DB with registry-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
