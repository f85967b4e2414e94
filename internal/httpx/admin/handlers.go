// Package admin implements the authenticated collection management API.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kylinpoet/song-for-guoxi/internal/esx"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit"
	"github.com/kylinpoet/song-for-guoxi/internal/store"
)

const msgCollectionNotFound = "Collection not found"

func timeout(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), 5*time.Second)
}

func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

// SaveHandler persists one week's collection.
//
//	@Summary      Save collection
//	@Description  JSON SaveRequest or flat form (churchName, weekLabel, collectionId, song_<i>_title, song_<i>_audioUrl, song_<i>_visible, song_<i>_sheet_<j>)
//	@Tags         admin
//	@Accept       json
//	@Accept       mpfd
//	@Produce      json
//	@Param        body  body      admin.SaveRequest  false  "collection snapshot"
//	@Success      200   {object}  map[string]interface{}
//	@Failure      400   {object}  map[string]interface{}
//	@Failure      403   {object}  map[string]interface{}
//	@Failure      404   {object}  map[string]interface{}
//	@Failure      500   {object}  map[string]interface{}
//	@Router       /admin/save [post]
func SaveHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := decodeSave(c)
		if err != nil {
			return err
		}
		if strings.TrimSpace(req.WeekLabel) == "" {
			return kit.BadRequest("周次标签不能为空", nil)
		}
		ctx, cancel := timeout(c)
		defer cancel()

		if name := strings.TrimSpace(req.ChurchName); name != "" {
			if err := d.Store.SetChurchName(ctx, name); err != nil {
				return kit.InternalError(err)
			}
		}
		id, err := d.Store.SaveCollection(ctx, req.input())
		if errors.Is(err, store.ErrNotFound) {
			return kit.NotFound(msgCollectionNotFound)
		}
		if err != nil {
			return kit.InternalError(err)
		}
		adminLogger.Info("collection saved", zap.Int64("id", id), zap.String("week_label", req.WeekLabel))
		d.afterSave(ctx, id)
		return kit.OK(c, fiber.Map{"collectionId": id})
	}
}

// SavePasswordHandler replaces the admin password.
//
//	@Summary      Change admin password
//	@Tags         admin
//	@Accept       x-www-form-urlencoded
//	@Produce      json
//	@Param        newPassword  formData  string  true  "new password"
//	@Success      200   {object}  map[string]interface{}
//	@Failure      400   {object}  map[string]interface{}
//	@Router       /admin/save-password [post]
func SavePasswordHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pw := c.FormValue("newPassword")
		if pw == "" {
			return kit.BadRequest("新密码不能为空", nil)
		}
		ctx, cancel := timeout(c)
		defer cancel()
		if err := d.Store.SetPassword(ctx, pw); err != nil {
			return kit.InternalError(err)
		}
		adminLogger.Info("admin password changed")
		return kit.OK(c, nil)
	}
}

// CollectionsHandler lists collection summaries newest first.
//
//	@Summary      List collections
//	@Tags         admin
//	@Produce      json
//	@Param        page     query  int  false  "page (1-based)"
//	@Param        perPage  query  int  false  "page size"
//	@Success      200   {object}  store.Page
//	@Router       /admin/collections [get]
func CollectionsHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pg := kit.ParsePage(c)
		ctx, cancel := timeout(c)
		defer cancel()
		page, err := d.Store.ListCollectionsPage(ctx, pg.Page, pg.PerPage)
		if err != nil {
			return kit.InternalError(err)
		}
		return kit.OK(c, fiber.Map{
			"collections": page.Collections,
			"total":       page.Total,
			"page":        page.Page,
			"perPage":     page.PerPage,
		})
	}
}

// EditHandler returns one collection with songs and sheets.
//
//	@Summary      Get collection for editing
//	@Tags         admin
//	@Produce      json
//	@Param        id   path      int  true  "collection id"
//	@Success      200  {object}  map[string]interface{}
//	@Failure      404  {object}  map[string]interface{}
//	@Router       /admin/edit/{id} [get]
func EditHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return kit.NotFound(msgCollectionNotFound)
		}
		ctx, cancel := timeout(c)
		defer cancel()
		col, err := d.Store.GetCollection(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return kit.NotFound(msgCollectionNotFound)
		}
		if err != nil {
			return kit.InternalError(err)
		}
		return kit.OK(c, fiber.Map{"collection": col})
	}
}

// DeleteHandler removes one collection and, by cascade, its songs and sheets.
//
//	@Summary      Delete collection
//	@Tags         admin
//	@Produce      json
//	@Param        id   path      int  true  "collection id"
//	@Success      200  {object}  map[string]interface{}
//	@Failure      404  {object}  map[string]interface{}
//	@Router       /admin/delete/{id} [delete]
func DeleteHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return kit.NotFound(msgCollectionNotFound)
		}
		ctx, cancel := timeout(c)
		defer cancel()
		err := d.Store.DeleteCollection(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return kit.NotFound(msgCollectionNotFound)
		}
		if err != nil {
			return kit.InternalError(err)
		}
		adminLogger.Info("collection deleted", zap.Int64("id", id))
		d.afterDelete(ctx, []int64{id})
		return kit.OK(c, fiber.Map{"message": "Collection deleted successfully"})
	}
}

// DeleteMultipleHandler removes every collection listed in the ids field.
//
//	@Summary      Delete collections
//	@Tags         admin
//	@Accept       x-www-form-urlencoded
//	@Produce      json
//	@Param        ids  formData  string  true  "JSON array of ids, e.g. [1,2]"
//	@Success      200  {object}  map[string]interface{}
//	@Failure      400  {object}  map[string]interface{}
//	@Failure      404  {object}  map[string]interface{}
//	@Router       /admin/delete-multiple [post]
func DeleteMultipleHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.FormValue("ids"))
		if raw == "" {
			return kit.BadRequest("ids is required", nil)
		}
		ids, err := parseIDs(raw)
		if err != nil {
			return kit.BadRequest("ids must be a JSON array of ids", err.Error())
		}
		if len(ids) == 0 {
			return kit.BadRequest("ids is required", nil)
		}
		ctx, cancel := timeout(c)
		defer cancel()
		n, err := d.Store.DeleteCollections(ctx, ids)
		if err != nil {
			return kit.InternalError(err)
		}
		if n == 0 {
			return kit.NotFound(msgCollectionNotFound)
		}
		adminLogger.Info("collections deleted", zap.Int64s("ids", ids), zap.Int64("deleted", n))
		d.afterDelete(ctx, ids)
		return kit.OK(c, fiber.Map{
			"message": fmt.Sprintf("%d collections deleted successfully", n),
			"deleted": n,
		})
	}
}

// SearchHandler searches collections by week label and song title.
//
//	@Summary      Search collections
//	@Tags         admin
//	@Produce      json
//	@Param        q        query  string  true   "query"
//	@Param        page     query  int     false  "page (1-based)"
//	@Param        perPage  query  int     false  "page size"
//	@Success      200  {object}  map[string]interface{}
//	@Failure      400  {object}  map[string]interface{}
//	@Router       /admin/search [get]
func SearchHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			return kit.BadRequest("q required", nil)
		}
		pg := kit.ParsePage(c)
		ctx, cancel := timeout(c)
		defer cancel()
		res, err := esx.SearchCollections(ctx, d.ES, d.ESIndex, q, pg.Offset(), pg.PerPage)
		if err != nil {
			return kit.InternalError(err)
		}
		return kit.OK(c, fiber.Map{
			"total":   res.Total,
			"hits":    res.Hits,
			"page":    pg.Page,
			"perPage": pg.PerPage,
		})
	}
}
