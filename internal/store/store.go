// Package store implements the church config accessor and the weekly song
// collection repository on top of database/sql.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/kylinpoet/song-for-guoxi/internal/db"
	"github.com/kylinpoet/song-for-guoxi/internal/logx"
)

var storeLogger = logx.GetScope("store")

// ErrNotFound is returned when a collection id does not exist.
var ErrNotFound = errors.New("collection not found")

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles the repositories over one database.
type Store struct {
	db       *sql.DB
	dialect  string
	defaults ChurchConfig
	now      func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps and publish dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store. defaults is what GetConfig yields when no row can be read.
func New(d *db.DB, defaults ChurchConfig, opts ...Option) *Store {
	s := &Store{db: d.DB, dialect: d.Dialect, defaults: defaults, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

// insertID runs an INSERT and returns the generated primary key.
func (s *Store) insertID(ctx context.Context, q querier, ins *entsql.InsertBuilder) (int64, error) {
	if s.dialect == dialect.Postgres {
		query, args := ins.Returning("id").Query()
		var id int64
		if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	query, args := ins.Query()
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
