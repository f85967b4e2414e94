package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/samber/lo"

	"github.com/kylinpoet/song-for-guoxi/internal/db"
)

var collectionColumns = []string{"id", "collection_name", "collection_week_label", "publish_date", "created_at"}

// newestFirst orders collections by creation time, newest id winning ties.
func newestFirst(sel *entsql.Selector) *entsql.Selector {
	return sel.OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
}

func scanCollections(rows *sql.Rows) ([]Collection, error) {
	defer rows.Close()
	out := []Collection{}
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.WeekLabel, &c.PublishDate, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Songs = []Song{}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCollections returns collections newest first with songs and sheets
// attached. limit <= 0 means no cap.
func (s *Store) ListCollections(ctx context.Context, limit int) ([]Collection, error) {
	b := s.builder()
	sel := newestFirst(b.Select(collectionColumns...).From(b.Table(db.TableSongCollections)))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	cols, err := scanCollections(rows)
	if err != nil {
		return nil, err
	}
	for i := range cols {
		if cols[i].Songs, err = s.loadSongs(ctx, cols[i].ID); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

// GetCollection returns one collection with its songs and sheets, or ErrNotFound.
func (s *Store) GetCollection(ctx context.Context, id int64) (*Collection, error) {
	b := s.builder()
	query, args := b.Select(collectionColumns...).
		From(b.Table(db.TableSongCollections)).
		Where(entsql.EQ("id", id)).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	cols, err := scanCollections(rows)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, ErrNotFound
	}
	c := cols[0]
	if c.Songs, err = s.loadSongs(ctx, c.ID); err != nil {
		return nil, err
	}
	return &c, nil
}

// loadSongs reads a collection's songs in sort order and attaches their sheets.
func (s *Store) loadSongs(ctx context.Context, collectionID int64) ([]Song, error) {
	b := s.builder()
	query, args := b.Select("id", "collection_id", "title", "audio_url", "visible", "sort_order").
		From(b.Table(db.TableSongs)).
		Where(entsql.EQ("collection_id", collectionID)).
		OrderBy("sort_order", "id").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	songs := []Song{}
	for rows.Next() {
		var sg Song
		if err := rows.Scan(&sg.ID, &sg.CollectionID, &sg.Title, &sg.AudioURL, &sg.Visible, &sg.SortOrder); err != nil {
			rows.Close()
			return nil, err
		}
		sg.Sheets = []SheetImage{}
		songs = append(songs, sg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(songs) == 0 {
		return songs, nil
	}

	ids := lo.Map(songs, func(sg Song, _ int) any { return sg.ID })
	query, args = b.Select("id", "song_id", "image_url", "sort_order").
		From(b.Table(db.TableSheetMusic)).
		Where(entsql.In("song_id", ids...)).
		OrderBy("song_id", "sort_order", "id").
		Query()
	rows, err = s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bySong := map[int64][]SheetImage{}
	for rows.Next() {
		var sh SheetImage
		if err := rows.Scan(&sh.ID, &sh.SongID, &sh.ImageURL, &sh.SortOrder); err != nil {
			return nil, err
		}
		bySong[sh.SongID] = append(bySong[sh.SongID], sh)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range songs {
		if sheets, ok := bySong[songs[i].ID]; ok {
			songs[i].Sheets = sheets
		}
	}
	return songs, nil
}

// ListCollectionsPage returns collection summaries (no songs) for one page
// plus the total row count. page and perPage are clamped to at least 1.
func (s *Store) ListCollectionsPage(ctx context.Context, page, perPage int) (*Page, error) {
	page = max(page, 1)
	perPage = max(perPage, 1)

	b := s.builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(db.TableSongCollections)).Query()
	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, err
	}

	query, args = newestFirst(b.Select(collectionColumns...).From(b.Table(db.TableSongCollections))).
		Limit(perPage).
		Offset((page - 1) * perPage).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	cols, err := scanCollections(rows)
	if err != nil {
		return nil, err
	}
	summaries := lo.Map(cols, func(c Collection, _ int) CollectionSummary {
		return CollectionSummary{ID: c.ID, Name: c.Name, WeekLabel: c.WeekLabel, PublishDate: c.PublishDate, CreatedAt: c.CreatedAt}
	})
	return &Page{Collections: summaries, Total: total, Page: page, PerPage: perPage}, nil
}

// SaveCollection persists a full collection snapshot and returns its id.
//
// With a CollectionID the row's label, publish date, and created time are
// overwritten. Otherwise an existing row with the same week label is reused
// and refreshed, or a new row is inserted. Existing sheets and songs are
// then replaced by in.Songs in submission order. Songs with an empty title
// are skipped along with their sheets; empty sheet URLs are skipped but keep
// their position in the sort order.
func (s *Store) SaveCollection(ctx context.Context, in SaveInput) (int64, error) {
	label := strings.TrimSpace(in.WeekLabel)
	if label == "" {
		return 0, errors.New("week label is required")
	}
	now := s.now()
	createdAt := now.UTC()
	publishDate := now.Format("2006-01-02")

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b := s.builder()
		var err error
		switch {
		case in.CollectionID > 0:
			id = in.CollectionID
			query, args := b.Update(db.TableSongCollections).
				Set("collection_name", label).
				Set("collection_week_label", label).
				Set("publish_date", publishDate).
				Set("created_at", createdAt).
				Where(entsql.EQ("id", id)).
				Query()
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrNotFound
			}
		default:
			id, err = s.findByWeekLabel(ctx, tx, label)
			if err != nil {
				return err
			}
			if id > 0 {
				query, args := b.Update(db.TableSongCollections).
					Set("collection_name", label).
					Set("publish_date", publishDate).
					Set("created_at", createdAt).
					Where(entsql.EQ("id", id)).
					Query()
				if _, err := tx.ExecContext(ctx, query, args...); err != nil {
					return err
				}
			} else {
				id, err = s.insertID(ctx, tx, b.Insert(db.TableSongCollections).
					Columns("collection_name", "collection_week_label", "publish_date", "created_at").
					Values(label, label, publishDate, createdAt))
				if err != nil {
					return err
				}
			}
		}
		return s.replaceSongs(ctx, tx, id, in.Songs)
	})
	if err != nil {
		return 0, err
	}
	storeLogger.Sugar().Debugf("saved collection %d (%s) with %d submitted songs", id, label, len(in.Songs))
	return id, nil
}

func (s *Store) findByWeekLabel(ctx context.Context, q querier, label string) (int64, error) {
	b := s.builder()
	query, args := b.Select("id").
		From(b.Table(db.TableSongCollections)).
		Where(entsql.EQ("collection_week_label", label)).
		Query()
	var id int64
	err := q.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func (s *Store) replaceSongs(ctx context.Context, tx *sql.Tx, collectionID int64, songs []SongInput) error {
	b := s.builder()
	songIDs := b.Select("id").From(b.Table(db.TableSongs)).Where(entsql.EQ("collection_id", collectionID))
	query, args := b.Delete(db.TableSheetMusic).Where(entsql.In("song_id", songIDs)).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	query, args = b.Delete(db.TableSongs).Where(entsql.EQ("collection_id", collectionID)).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	for i, sg := range songs {
		title := strings.TrimSpace(sg.Title)
		if title == "" {
			continue
		}
		songID, err := s.insertID(ctx, tx, b.Insert(db.TableSongs).
			Columns("collection_id", "title", "audio_url", "visible", "sort_order").
			Values(collectionID, title, strings.TrimSpace(sg.AudioURL), sg.Visible, i))
		if err != nil {
			return err
		}
		for j, url := range sg.SheetURLs {
			if strings.TrimSpace(url) == "" {
				continue
			}
			query, args := b.Insert(db.TableSheetMusic).
				Columns("song_id", "image_url", "sort_order").
				Values(songID, url, j).
				Query()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteCollection removes one collection; songs and sheets cascade.
func (s *Store) DeleteCollection(ctx context.Context, id int64) error {
	n, err := s.DeleteCollections(ctx, []int64{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCollections removes every listed collection and reports how many
// rows were deleted.
func (s *Store) DeleteCollections(ctx context.Context, ids []int64) (int64, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	b := s.builder()
	query, args := b.Delete(db.TableSongCollections).
		Where(entsql.In("id", lo.ToAnySlice(ids)...)).
		Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
