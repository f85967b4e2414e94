package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kylinpoet/song-for-guoxi/internal/db/dbtest"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit/testutil"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/mw"
	"github.com/kylinpoet/song-for-guoxi/internal/redisx"
	"github.com/kylinpoet/song-for-guoxi/internal/store"
)

const homeKey = "songnav:" + redisx.KeyHome

func newCachedApp(t *testing.T) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	d := dbtest.Open(t)
	st := store.New(d, store.ChurchConfig{ChurchName: "默认"})
	app := fiber.New(fiber.Config{ErrorHandler: kit.ErrorHandler()})
	Register(app, &Providers{
		DB:         d,
		Seed:       dbtest.DefaultSeed,
		Store:      st,
		AdminToken: testToken,
		Cache:      redisx.NewCache(rdb, "songnav:", time.Minute),
	})
	return app, mr
}

func adminReq(req *http.Request) *http.Request {
	return testutil.WithCookie(req, mw.CookieName, testToken)
}

func TestHomeCache_FilledAndInvalidated(t *testing.T) {
	app, mr := newCachedApp(t)

	res, body := send(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	if res.StatusCode != http.StatusOK || !strings.Contains(body, store.UnsetCurrentWeekLabel) {
		t.Fatalf("home: status=%d", res.StatusCode)
	}
	if !mr.Exists(homeKey) {
		t.Fatalf("homepage not cached: keys=%v", mr.Keys())
	}

	payload, _ := json.Marshal(map[string]any{
		"weekLabel": "2025年三月二周",
		"songs":     []map[string]any{{"title": "奇异恩典", "visible": true}},
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/save", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res, body = send(t, app, adminReq(req))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("save: status=%d body=%s", res.StatusCode, body)
	}
	if mr.Exists(homeKey) {
		t.Fatal("save must clear the homepage cache")
	}
	var saved struct {
		CollectionID int64 `json:"collectionId"`
	}
	if err := json.Unmarshal([]byte(body), &saved); err != nil || saved.CollectionID == 0 {
		t.Fatalf("save body=%s err=%v", body, err)
	}

	_, body = send(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(body, "奇异恩典") {
		t.Fatal("homepage served stale data after save")
	}
	if !mr.Exists(homeKey) {
		t.Fatal("homepage not cached again")
	}

	del := httptest.NewRequest(http.MethodDelete, "/admin/delete/"+strconv.FormatInt(saved.CollectionID, 10), nil)
	if res, body = send(t, app, adminReq(del)); res.StatusCode != http.StatusOK {
		t.Fatalf("delete: status=%d body=%s", res.StatusCode, body)
	}
	if mr.Exists(homeKey) {
		t.Fatal("delete must clear the homepage cache")
	}
	_, body = send(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Contains(body, "奇异恩典") {
		t.Fatal("homepage served stale data after delete")
	}
}

func TestHomeCache_ServesCachedReadModel(t *testing.T) {
	app, mr := newCachedApp(t)

	send(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	if !mr.Exists(homeKey) {
		t.Fatal("homepage not cached")
	}
	raw, err := mr.Get(homeKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// a cached hit is rendered without touching the store
	if err := mr.Set(homeKey, strings.Replace(raw, dbtest.DefaultSeed.ChurchName, "缓存教会", 1)); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, body := send(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(body, "缓存教会") {
		t.Fatal("homepage did not use the cached read model")
	}
}
