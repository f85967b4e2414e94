package httpx

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	"github.com/kylinpoet/song-for-guoxi/internal/db"
	"github.com/kylinpoet/song-for-guoxi/internal/esx"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/admin"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/auth"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/mw"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/pages"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/upload"
	"github.com/kylinpoet/song-for-guoxi/internal/mqx"
	"github.com/kylinpoet/song-for-guoxi/internal/redisx"
	"github.com/kylinpoet/song-for-guoxi/internal/store"
)

// Providers are the collaborators the routes need. Cache, MQ, ES and
// Uploader are optional.
type Providers struct {
	DB         *db.DB
	Seed       db.Seed
	Store      *store.Store
	AdminToken string

	Cache    *redisx.Cache
	MQ       mqx.Publisher
	ES       *esx.Client
	ESIndex  string
	Uploader upload.Uploader
	Now      func() time.Time
}

// SchemaGuard runs EnsureSchema before every request, so tables and the
// default config row come back if they go missing. Failures are logged and
// the request proceeds.
func SchemaGuard(d *db.DB, seed db.Seed) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d == nil {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		err := db.EnsureSchema(ctx, d, seed)
		cancel()
		if err != nil {
			httpxLogger.Sugar().Errorf("ensure schema: %v", err)
		}
		return c.Next()
	}
}

// Register mounts every route. Admin endpoints are guarded one by one so
// unknown /admin/* paths still reach the homepage.
func Register(app *fiber.App, p *Providers) {
	app.Use(SchemaGuard(p.DB, p.Seed))

	app.Get("/health", HealthHandler)
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	pd := &pages.Deps{Store: p.Store, Cache: p.Cache, Now: p.Now}
	ad := &admin.Deps{Store: p.Store, Cache: p.Cache, MQ: p.MQ, ES: p.ES, ESIndex: p.ESIndex}
	guard := mw.RequireAdmin(p.AdminToken)

	app.Post("/admin", auth.LoginHandler(p.Store, p.AdminToken))
	app.Get("/admin", pages.AdminPageHandler(pd, p.AdminToken))

	app.Post("/admin/save", guard, admin.SaveHandler(ad))
	app.Post("/admin/upload-sheet", guard, upload.Handler(upload.Sheet, p.Uploader, p.Now))
	app.Post("/admin/upload-audio", guard, upload.Handler(upload.Audio, p.Uploader, p.Now))
	app.Post("/admin/save-password", guard, admin.SavePasswordHandler(ad))
	app.Get("/admin/collections", guard, admin.CollectionsHandler(ad))
	app.Get("/admin/edit/:id", guard, admin.EditHandler(ad))
	app.Delete("/admin/delete/:id", guard, admin.DeleteHandler(ad))
	app.Post("/admin/delete-multiple", guard, admin.DeleteMultipleHandler(ad))
	app.Get("/admin/search", guard, admin.SearchHandler(ad))

	home := pages.HomeHandler(pd)
	app.All("/", home)
	app.All("/*", home)
}
