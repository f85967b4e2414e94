package store

import (
	"context"
	"database/sql"
	"errors"

	entsql "entgo.io/ent/dialect/sql"
	"go.uber.org/zap"

	"github.com/kylinpoet/song-for-guoxi/internal/db"
)

// GetConfig returns the most recent config row. It never fails: a missing
// row or a read error yields the built-in defaults.
func (s *Store) GetConfig(ctx context.Context) ChurchConfig {
	b := s.builder()
	query, args := b.Select("id", "church_name", "admin_password", "created_at", "updated_at").
		From(b.Table(db.TableChurchConfig)).
		OrderBy(entsql.Desc("id")).
		Limit(1).
		Query()

	var c ChurchConfig
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.ChurchName, &c.AdminPassword, &c.CreatedAt, &c.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.defaults
	case err != nil:
		storeLogger.Warn("read church config failed; using defaults", zap.Error(err))
		return s.defaults
	}
	return c
}

// SetChurchName updates the church name on the latest config row.
func (s *Store) SetChurchName(ctx context.Context, name string) error {
	return s.updateLatestConfig(ctx, s.db, "church_name", name)
}

// SetPassword replaces the admin password on the latest config row.
func (s *Store) SetPassword(ctx context.Context, password string) error {
	return s.updateLatestConfig(ctx, s.db, "admin_password", password)
}

func (s *Store) updateLatestConfig(ctx context.Context, q querier, column, value string) error {
	b := s.builder()
	latest, args := b.Select("id").From(b.Table(db.TableChurchConfig)).OrderBy(entsql.Desc("id")).Limit(1).Query()
	var id int64
	if err := q.QueryRowContext(ctx, latest, args...).Scan(&id); err != nil {
		return err
	}
	query, args := b.Update(db.TableChurchConfig).
		Set(column, value).
		Set("updated_at", s.now().UTC()).
		Where(entsql.EQ("id", id)).
		Query()
	_, err := q.ExecContext(ctx, query, args...)
	return err
}
