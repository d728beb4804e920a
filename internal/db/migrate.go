package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied idempotently on startup. Statements must stay safe to
// re-run against an existing database.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		clerk_id text UNIQUE NOT NULL,
		email text NOT NULL DEFAULT '',
		username text NOT NULL DEFAULT '',
		first_name text NOT NULL DEFAULT '',
		last_name text NOT NULL DEFAULT '',
		image_url text NOT NULL DEFAULT '',
		email_verified boolean NOT NULL DEFAULT false,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_entries (
		id uuid PRIMARY KEY,
		kind text NOT NULL,
		name text NOT NULL,
		tags text[] NOT NULL DEFAULT '{}',
		reward int NOT NULL DEFAULT 0 CHECK (reward >= 0),
		secondary_amount double precision NOT NULL DEFAULT 0 CHECK (secondary_amount >= 0),
		legacy_use_count int NOT NULL DEFAULT 0,
		owner_id text NULL,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS entry_overrides (
		id uuid PRIMARY KEY,
		user_id text NOT NULL,
		entry_id uuid NOT NULL REFERENCES catalog_entries(id) ON DELETE CASCADE,
		name text NULL,
		tags text[] NULL,
		reward int NULL CHECK (reward IS NULL OR reward >= 0),
		secondary_amount double precision NULL,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now(),
		UNIQUE (user_id, entry_id)
	)`,
	`CREATE TABLE IF NOT EXISTS hidden_marks (
		user_id text NOT NULL,
		entry_id uuid NOT NULL REFERENCES catalog_entries(id) ON DELETE CASCADE,
		created_at timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, entry_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_events (
		id uuid PRIMARY KEY,
		entry_id uuid NOT NULL,
		user_id text NOT NULL,
		kind text NOT NULL,
		amount int NOT NULL DEFAULT 0,
		secondary_amount double precision NOT NULL DEFAULT 0,
		occurred_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_events_user ON ledger_events (user_id, occurred_at DESC)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		user_id text PRIMARY KEY,
		gems int NOT NULL DEFAULT 0,
		secondary double precision NOT NULL DEFAULT 0,
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS goals (
		id uuid PRIMARY KEY,
		user_id text NOT NULL,
		name text NOT NULL,
		target_gems int NOT NULL,
		target_secondary double precision NULL,
		is_completed boolean NOT NULL DEFAULT false,
		completed_at timestamptz NULL,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS device_tokens (
		id uuid PRIMARY KEY,
		user_id text NOT NULL,
		token text UNIQUE NOT NULL,
		platform text NOT NULL DEFAULT '',
		registered_at timestamptz NOT NULL DEFAULT now()
	)`,
}

// Migrate brings the schema up. Safe to call on every boot.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
