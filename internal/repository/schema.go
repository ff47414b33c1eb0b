package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the tables the control plane needs when they do not
// exist yet. Stores and audit events are looked up by name and recency, so
// both carry supporting indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS stores (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			type       TEXT NOT NULL,
			status     TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			url        TEXT,
			namespace  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stores_name ON stores (name)`,
		`CREATE TABLE IF NOT EXISTS audit_events (
			id         TEXT PRIMARY KEY,
			store_id   TEXT,
			store_name TEXT,
			action     TEXT NOT NULL,
			message    TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS operators (
			id            TEXT PRIMARY KEY,
			email         TEXT UNIQUE NOT NULL,
			username      TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			is_active     BOOLEAN NOT NULL DEFAULT true
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
