package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS art_pieces (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identification_word TEXT UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		ipfs_metadata_url TEXT NOT NULL UNIQUE,
		ipfs_image_url TEXT NOT NULL DEFAULT '',
		metadata_json TEXT,
		is_minted BOOLEAN NOT NULL DEFAULT FALSE,
		minted_at TEXT,
		minted_by TEXT,
		token_id INTEGER,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		wallet_key TEXT NOT NULL UNIQUE,
		wallet_address TEXT NOT NULL,
		name TEXT NOT NULL,
		x_handle TEXT,
		farcaster_handle TEXT,
		instagram_handle TEXT,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_art_pieces_created_at ON art_pieces (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_art_pieces_minted_by ON art_pieces (minted_by)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS art_pieces (
		id BIGSERIAL PRIMARY KEY,
		identification_word TEXT UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		ipfs_metadata_url TEXT NOT NULL UNIQUE,
		ipfs_image_url TEXT NOT NULL DEFAULT '',
		metadata_json TEXT,
		is_minted BOOLEAN NOT NULL DEFAULT FALSE,
		minted_at TEXT,
		minted_by TEXT,
		token_id BIGINT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_profiles (
		id BIGSERIAL PRIMARY KEY,
		wallet_key TEXT NOT NULL UNIQUE,
		wallet_address TEXT NOT NULL,
		name TEXT NOT NULL,
		x_handle TEXT,
		farcaster_handle TEXT,
		instagram_handle TEXT,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_art_pieces_created_at ON art_pieces (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_art_pieces_minted_by ON art_pieces (minted_by)`,
}

// Migrate creates the gallery schema. Every statement is idempotent, so it
// runs on each start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements := sqliteSchema
	if db.DriverName() == DriverPostgres {
		statements = postgresSchema
	}
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
