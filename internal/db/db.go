// Package db opens the relational store and owns its schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"entgo.io/ent/dialect"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver for PostgreSQL
	_ "modernc.org/sqlite"             // register sqlite driver

	"github.com/kylinpoet/song-for-guoxi/internal/config"
	"github.com/kylinpoet/song-for-guoxi/internal/logx"
)

var dbLogger = logx.GetScope("db")

var baseDB atomic.Pointer[sql.DB]

// DB is a database handle tagged with its ent dialect name.
type DB struct {
	*sql.DB
	Dialect string
}

// Open opens a DB connection for the configured driver.
func Open(cfg *config.Config) (*DB, func(), error) {
	driverName, dialectName, err := resolveDriver(cfg.DB.Driver)
	if err != nil {
		return nil, func() {}, err
	}
	dsn := cfg.DB.URL
	if dialectName == dialect.SQLite {
		dsn = SQLiteDSN(dsn)
	}
	sqldb, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, func() {}, err
	}
	if dialectName == dialect.SQLite {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY inside transactions.
		sqldb.SetMaxOpenConns(1)
		if err := checkForeignKeys(sqldb); err != nil {
			_ = sqldb.Close()
			return nil, func() {}, err
		}
	} else {
		sqldb.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	baseDB.Store(sqldb)

	closer := func() {
		baseDB.CompareAndSwap(sqldb, nil)
		if err := sqldb.Close(); err != nil {
			dbLogger.Sugar().Errorf("close db: %v", err)
		}
	}
	return &DB{DB: sqldb, Dialect: dialectName}, closer, nil
}

// SQLiteDSN adds the foreign_keys pragma to dsn unless it already sets one.
// Cascade deletes depend on it, and sqlite leaves it off per connection.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

func checkForeignKeys(sqldb *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var on int
	if err := sqldb.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
		return fmt.Errorf("check sqlite foreign_keys: %w", err)
	}
	if on != 1 {
		return fmt.Errorf("sqlite foreign_keys is off; remove foreign_keys(0) from DB_URL")
	}
	return nil
}

func resolveDriver(name string) (driverName, dialectName string, err error) {
	switch name {
	case "", "sqlite", "sqlite3":
		return "sqlite", dialect.SQLite, nil
	case "postgres", "pg", "pgx":
		return "pgx", dialect.Postgres, nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", name)
	}
}

// UpdatePool updates DB pool settings at runtime.
func UpdatePool(maxOpen, maxIdle int) {
	sqldb := baseDB.Load()
	if sqldb == nil {
		return
	}
	if maxOpen > 0 {
		sqldb.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		sqldb.SetMaxIdleConns(maxIdle)
	}
}
