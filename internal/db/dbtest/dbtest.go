// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kylinpoet/song-for-guoxi/internal/db"
)

// DefaultSeed is the config row seeded by Open.
var DefaultSeed = db.Seed{ChurchName: "测试教会", AdminPassword: "secret"}

// Open returns a fresh in-memory sqlite database with the schema applied.
func Open(t *testing.T) *db.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = sqldb.Close() })

	d := &db.DB{DB: sqldb, Dialect: dialect.SQLite}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.EnsureSchema(ctx, d, DefaultSeed); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return d
}
