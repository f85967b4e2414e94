package db

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// Table names shared with the store package.
const (
	TableChurchConfig    = "church_config"
	TableSongCollections = "song_collections"
	TableSongs           = "songs"
	TableSheetMusic      = "sheet_music"
)

// Seed is the church configuration row inserted when none exists.
type Seed struct {
	ChurchName    string
	AdminPassword string
}

// EnsureSchema creates all tables if absent and seeds the default config row.
// Safe to call multiple times.
func EnsureSchema(ctx context.Context, d *DB, seed Seed) error {
	stmts, err := ddl(d.Dialect)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	b := entsql.Dialect(d.Dialect)
	q, args := b.Select(entsql.Count("*")).From(b.Table(TableChurchConfig)).Query()
	var n int
	if err := d.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return fmt.Errorf("count church_config: %w", err)
	}
	if n > 0 {
		return nil
	}
	now := time.Now().UTC()
	q, args = b.Insert(TableChurchConfig).
		Columns("church_name", "admin_password", "created_at", "updated_at").
		Values(seed.ChurchName, seed.AdminPassword, now, now).
		Query()
	if _, err := d.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("seed church_config: %w", err)
	}
	dbLogger.Sugar().Infof("seeded default church config %q", seed.ChurchName)
	return nil
}

func ddl(name string) ([]string, error) {
	switch name {
	case dialect.SQLite:
		return sqliteSchema, nil
	case dialect.Postgres:
		return postgresSchema, nil
	default:
		return nil, fmt.Errorf("no schema for dialect %q", name)
	}
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS church_config (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    church_name TEXT NOT NULL,
    admin_password TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS song_collections (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    collection_name TEXT NOT NULL,
    collection_week_label TEXT NOT NULL UNIQUE,
    publish_date TEXT NOT NULL DEFAULT CURRENT_DATE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_song_collections_created_at ON song_collections(created_at)`,
	`CREATE TABLE IF NOT EXISTS songs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    collection_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    audio_url TEXT NOT NULL DEFAULT '',
    visible BOOLEAN NOT NULL DEFAULT TRUE,
    sort_order INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (collection_id) REFERENCES song_collections(id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS idx_songs_collection_id ON songs(collection_id)`,
	`CREATE TABLE IF NOT EXISTS sheet_music (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    song_id INTEGER NOT NULL,
    image_url TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (song_id) REFERENCES songs(id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS idx_sheet_music_song_id ON sheet_music(song_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS church_config (
    id BIGSERIAL PRIMARY KEY,
    church_name TEXT NOT NULL,
    admin_password TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS song_collections (
    id BIGSERIAL PRIMARY KEY,
    collection_name TEXT NOT NULL,
    collection_week_label TEXT NOT NULL UNIQUE,
    publish_date TEXT NOT NULL DEFAULT to_char(CURRENT_DATE, 'YYYY-MM-DD'),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_song_collections_created_at ON song_collections(created_at)`,
	`CREATE TABLE IF NOT EXISTS songs (
    id BIGSERIAL PRIMARY KEY,
    collection_id BIGINT NOT NULL REFERENCES song_collections(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    audio_url TEXT NOT NULL DEFAULT '',
    visible BOOLEAN NOT NULL DEFAULT TRUE,
    sort_order INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_songs_collection_id ON songs(collection_id)`,
	`CREATE TABLE IF NOT EXISTS sheet_music (
    id BIGSERIAL PRIMARY KEY,
    song_id BIGINT NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
    image_url TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_sheet_music_song_id ON sheet_music(song_id)`,
}
