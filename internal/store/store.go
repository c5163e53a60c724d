// Package store keeps the rate table and saved quotes in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the database handle. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the SQLite database at dsn (a file path or ":memory:")
// and runs the migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers anyway, and an in-memory database only lives
	// as long as its single connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS glass_rates (
		thickness_key  TEXT NOT NULL,
		thickness      TEXT NOT NULL,
		glass_type     TEXT NOT NULL,
		base_rate      TEXT NOT NULL,
		polish_rate    TEXT NOT NULL DEFAULT '0',
		only_tempered  BOOLEAN NOT NULL DEFAULT 0,
		no_polish      BOOLEAN NOT NULL DEFAULT 0,
		never_tempered BOOLEAN NOT NULL DEFAULT 0,
		PRIMARY KEY (thickness_key, glass_type)
	);`,
	`CREATE TABLE IF NOT EXISTS markups (
		name    TEXT PRIMARY KEY,
		percent TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS beveled_rates (
		thickness_key TEXT PRIMARY KEY,
		thickness     TEXT NOT NULL,
		rate          TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS clipped_corner_rates (
		thickness_key TEXT NOT NULL,
		thickness     TEXT NOT NULL,
		size          TEXT NOT NULL CHECK (size IN ('under_1', 'over_1')),
		rate          TEXT NOT NULL,
		PRIMARY KEY (thickness_key, size)
	);`,
	`CREATE TABLE IF NOT EXISTS pricing_settings (
		id                  INTEGER PRIMARY KEY CHECK (id = 1),
		mirror_polish_rate  TEXT NOT NULL DEFAULT '0',
		minimum_sq_ft       TEXT NOT NULL DEFAULT '3',
		contractor_discount TEXT NOT NULL DEFAULT '0.15',
		margin_divisor      TEXT NOT NULL DEFAULT '0.28',
		thinnest_thickness  TEXT NOT NULL DEFAULT '1/8"'
	);`,
	`CREATE TABLE IF NOT EXISTS quotes (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		quote_number   INTEGER NOT NULL,
		version        INTEGER NOT NULL,
		customer_name  TEXT NOT NULL DEFAULT '',
		job_name       TEXT NOT NULL DEFAULT '',
		total          TEXT NOT NULL,
		margin_divisor TEXT NOT NULL,
		quote_price    TEXT NOT NULL,
		created_by     TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMP NOT NULL,
		UNIQUE (quote_number, version)
	);`,
	`CREATE TABLE IF NOT EXISTS quote_items (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		quote_id       INTEGER NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
		position       INTEGER NOT NULL,
		label          TEXT NOT NULL DEFAULT '',
		quantity       INTEGER NOT NULL,
		per_unit_total TEXT NOT NULL,
		total          TEXT NOT NULL,
		spec_json      TEXT NOT NULL,
		breakdown_json TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_quote_items_quote ON quote_items (quote_id);`,
}

// Migrate creates any missing tables. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for i, q := range migrations {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
