// Package httpx provides HTTP handling utilities and middleware
package httpx

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/kylinpoet/song-for-guoxi/internal/db/dbtest"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit/testutil"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/mw"
	"github.com/kylinpoet/song-for-guoxi/internal/store"
)

const testToken = "e2e-token"

func newE2EApp(t *testing.T) *fiber.App {
	t.Helper()
	d := dbtest.Open(t)
	st := store.New(d, store.ChurchConfig{ChurchName: "默认", AdminPassword: "pw"})
	app := fiber.New(fiber.Config{ErrorHandler: kit.ErrorHandler()})
	RegisterCommonMiddlewares(app)
	Register(app, &Providers{DB: d, Seed: dbtest.DefaultSeed, Store: st, AdminToken: testToken})
	return app
}

func send(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	b, _ := io.ReadAll(res.Body)
	return res, string(b)
}

func TestE2E_Health(t *testing.T) {
	app := newE2EApp(t)
	res, body := send(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", res.StatusCode)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["success"] != true || m["status"] != "ok" {
		t.Fatalf("unexpected body: %v", m)
	}
}

func TestE2E_UnknownPathsServeHomepage(t *testing.T) {
	app := newE2EApp(t)
	for _, path := range []string{"/", "/anything", "/admin/unknown", "/a/b/c"} {
		res, body := send(t, app, httptest.NewRequest(http.MethodGet, path, nil))
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s: status=%d", path, res.StatusCode)
		}
		if !strings.Contains(body, "主日崇拜诗歌导航") || !strings.Contains(body, dbtest.DefaultSeed.ChurchName) {
			t.Fatalf("%s: not the homepage", path)
		}
	}
}

func TestE2E_LoginThenAdminPage(t *testing.T) {
	app := newE2EApp(t)

	res, _ := send(t, app, testutil.FormRequest(http.MethodPost, "/admin", url.Values{"password": {"nope"}}))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong password: status=%d", res.StatusCode)
	}

	res, body := send(t, app, testutil.FormRequest(http.MethodPost, "/admin", url.Values{"password": {dbtest.DefaultSeed.AdminPassword}}))
	if res.StatusCode != http.StatusOK || !strings.Contains(body, `"success":true`) {
		t.Fatalf("login: status=%d body=%s", res.StatusCode, body)
	}
	var cookie *http.Cookie
	for _, ck := range res.Cookies() {
		if ck.Name == mw.CookieName {
			cookie = ck
		}
	}
	if cookie == nil || cookie.Value != testToken || !cookie.HttpOnly {
		t.Fatalf("admin cookie not set: %+v", res.Cookies())
	}

	req := testutil.WithCookie(httptest.NewRequest(http.MethodGet, "/admin", nil), mw.CookieName, cookie.Value)
	res, body = send(t, app, req)
	if res.StatusCode != http.StatusOK || !strings.Contains(body, "歌曲管理") {
		t.Fatalf("admin page: status=%d", res.StatusCode)
	}

	req = testutil.WithCookie(httptest.NewRequest(http.MethodGet, "/admin/collections", nil), mw.CookieName, cookie.Value)
	res, body = send(t, app, req)
	if res.StatusCode != http.StatusOK || !strings.Contains(body, `"collections":[]`) {
		t.Fatalf("collections: status=%d body=%s", res.StatusCode, body)
	}
}

func TestE2E_GuardedEndpoints(t *testing.T) {
	app := newE2EApp(t)

	res, body := send(t, app, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if res.StatusCode != http.StatusForbidden || body != "未授权，请先登录" {
		t.Fatalf("admin page without cookie: status=%d body=%q", res.StatusCode, body)
	}

	guarded := []struct{ method, path string }{
		{http.MethodPost, "/admin/save"},
		{http.MethodPost, "/admin/upload-sheet"},
		{http.MethodPost, "/admin/upload-audio"},
		{http.MethodPost, "/admin/save-password"},
		{http.MethodGet, "/admin/collections"},
		{http.MethodGet, "/admin/edit/1"},
		{http.MethodDelete, "/admin/delete/1"},
		{http.MethodPost, "/admin/delete-multiple"},
		{http.MethodGet, "/admin/search?q=x"},
	}
	for _, g := range guarded {
		req := testutil.WithCookie(httptest.NewRequest(g.method, g.path, nil), mw.CookieName, "forged")
		res, body := send(t, app, req)
		if res.StatusCode != http.StatusForbidden || !strings.Contains(body, "未授权") {
			t.Fatalf("%s %s: status=%d body=%s", g.method, g.path, res.StatusCode, body)
		}
	}
}

func TestE2E_UploadWithoutFile(t *testing.T) {
	app := newE2EApp(t)
	req := testutil.WithCookie(
		testutil.MultipartRequest(http.MethodPost, "/admin/upload-sheet", map[string]string{"x": "y"}),
		mw.CookieName, testToken)
	res, body := send(t, app, req)
	if res.StatusCode != http.StatusBadRequest || !strings.Contains(body, "没有选择文件") {
		t.Fatalf("status=%d body=%s", res.StatusCode, body)
	}

	req = testutil.WithCookie(
		testutil.MultipartRequest(http.MethodPost, "/admin/upload-audio", nil,
			testutil.MultipartFile{Field: "audioFile", Name: "a.mp3", Body: []byte("ID3")}),
		mw.CookieName, testToken)
	res, _ = send(t, app, req)
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("no storage: status=%d", res.StatusCode)
	}
}

func TestE2E_PanicIsPlainText500(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: kit.ErrorHandler()})
	RegisterCommonMiddlewares(app)
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	res, body := send(t, app, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if res.StatusCode != http.StatusInternalServerError || body != "Error: boom" {
		t.Fatalf("status=%d body=%q", res.StatusCode, body)
	}
}

func TestSchemaGuard_ReseedsEveryRequest(t *testing.T) {
	d := dbtest.Open(t)
	app := testutil.NewApp(func(app *fiber.App) {
		app.Use(SchemaGuard(d, dbtest.DefaultSeed))
		app.Get("/x", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })
	})
	count := func() int {
		var n int
		if err := d.QueryRow("SELECT COUNT(*) FROM church_config").Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		return n
	}

	for i := 0; i < 2; i++ {
		if _, err := d.Exec("DELETE FROM church_config"); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if res, _ := send(t, app, httptest.NewRequest(http.MethodGet, "/x", nil)); res.StatusCode != http.StatusNoContent {
			t.Fatalf("status=%d", res.StatusCode)
		}
		if n := count(); n != 1 {
			t.Fatalf("request %d: config rows=%d", i, n)
		}
	}

	if _, err := d.Exec("DROP TABLE sheet_music"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	send(t, app, httptest.NewRequest(http.MethodGet, "/x", nil))
	var n int
	if err := d.QueryRow("SELECT COUNT(*) FROM sheet_music").Scan(&n); err != nil {
		t.Fatalf("table not recreated: %v", err)
	}
}
