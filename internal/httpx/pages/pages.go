// Package pages renders the public homepage and the admin page.
package pages

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kylinpoet/song-for-guoxi/internal/httpx/mw"
	"github.com/kylinpoet/song-for-guoxi/internal/logx"
	"github.com/kylinpoet/song-for-guoxi/internal/redisx"
	"github.com/kylinpoet/song-for-guoxi/internal/store"
	"github.com/kylinpoet/song-for-guoxi/pkg"
)

var pagesLogger = logx.GetScope("pages")

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Deps are what the pages read. Cache may be nil.
type Deps struct {
	Store *store.Store
	Cache *redisx.Cache
	// Now drives the default week label on the admin page.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// homeData is the cached homepage read model.
type homeData struct {
	Config store.ChurchConfig `json:"config"`
	Weeks  store.Weeks        `json:"weeks"`
}

func (d *Deps) loadHome(ctx context.Context) (homeData, error) {
	var hd homeData
	if d.Cache.GetJSON(ctx, redisx.KeyHome, &hd) {
		return hd, nil
	}
	weeks, err := d.Store.LatestWeeks(ctx)
	if err != nil {
		return hd, err
	}
	hd = homeData{Config: d.Store.GetConfig(ctx), Weeks: weeks}
	d.Cache.SetJSON(ctx, redisx.KeyHome, hd)
	return hd, nil
}

func render(c *fiber.Ctx, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

// HomeHandler renders this week and next week. Store errors propagate to
// the app error handler as a plain-text 500.
func HomeHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		hd, err := d.loadHome(ctx)
		if err != nil {
			return err
		}
		return render(c, fiber.StatusOK, "home.html", buildHome(hd.Config.ChurchName, hd.Weeks))
	}
}

type adminView struct {
	ChurchName       string
	DefaultWeekLabel string
	NextWeekLabel    string
}

// AdminPageHandler renders the admin page for holders of the admin cookie
// and a plain 403 for everyone else.
func AdminPageHandler(d *Deps, token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !mw.IsAdmin(c, token) {
			pagesLogger.Sugar().Infof("admin page denied from %s", c.IP())
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
			return c.Status(fiber.StatusForbidden).SendString("未授权，请先登录")
		}
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		now := d.now()
		return render(c, fiber.StatusOK, "admin.html", adminView{
			ChurchName:       d.Store.GetConfig(ctx).ChurchName,
			DefaultWeekLabel: pkg.WeekLabel(now, 0),
			NextWeekLabel:    pkg.WeekLabel(now, 1),
		})
	}
}
