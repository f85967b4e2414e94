package admin

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kylinpoet/song-for-guoxi/internal/esx"
	"github.com/kylinpoet/song-for-guoxi/internal/logx"
	"github.com/kylinpoet/song-for-guoxi/internal/mqx"
	"github.com/kylinpoet/song-for-guoxi/internal/redisx"
	"github.com/kylinpoet/song-for-guoxi/internal/store"
)

var adminLogger = logx.GetScope("admin")

// Deps are the collaborators of the admin handlers. Only Store is required;
// a nil Cache, MQ, or ES disables that side effect.
type Deps struct {
	Store   *store.Store
	Cache   *redisx.Cache
	MQ      mqx.Publisher
	ES      *esx.Client
	ESIndex string
}

// afterSave refreshes derived state once a collection write has committed.
// Failures are logged; the write itself already succeeded.
func (d *Deps) afterSave(ctx context.Context, id int64) {
	d.Cache.Del(ctx, redisx.KeyHome)

	col, err := d.Store.GetCollection(ctx, id)
	if err != nil {
		adminLogger.Warn("reload saved collection failed", zap.Int64("id", id), zap.Error(err))
		return
	}
	titles := lo.Map(col.Songs, func(s store.Song, _ int) string { return s.Title })
	mqx.PublishEvent(ctx, d.MQ, mqx.EventCollectionSaved, mqx.CollectionEvent{
		IDs: []int64{id}, WeekLabel: col.WeekLabel, SongCount: len(col.Songs),
	})
	doc := esx.CollectionDoc{
		ID:          col.ID,
		WeekLabel:   col.WeekLabel,
		SongTitles:  titles,
		PublishDate: col.PublishDate,
		CreatedAt:   col.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if err := esx.IndexCollection(ctx, d.ES, d.ESIndex, doc); err != nil {
		adminLogger.Warn("index collection failed", zap.Int64("id", id), zap.Error(err))
	}
}

func (d *Deps) afterDelete(ctx context.Context, ids []int64) {
	d.Cache.Del(ctx, redisx.KeyHome)
	mqx.PublishEvent(ctx, d.MQ, mqx.EventCollectionDeleted, mqx.CollectionEvent{IDs: ids})
	for _, id := range ids {
		if err := esx.DeleteCollection(ctx, d.ES, d.ESIndex, id); err != nil {
			adminLogger.Warn("unindex collection failed", zap.Int64("id", id), zap.Error(err))
		}
	}
}
