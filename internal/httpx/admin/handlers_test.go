package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kylinpoet/song-for-guoxi/internal/db/dbtest"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit/testutil"
	"github.com/kylinpoet/song-for-guoxi/internal/mqx"
	"github.com/kylinpoet/song-for-guoxi/internal/store"
)

type recordingPublisher struct{ keys []string }

func (r *recordingPublisher) Publish(_ context.Context, key string, _ []byte) error {
	r.keys = append(r.keys, key)
	return nil
}
func (r *recordingPublisher) Close() error { return nil }

func newTestDeps(t *testing.T) (*Deps, *recordingPublisher) {
	t.Helper()
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * time.Second)
	}
	st := store.New(dbtest.Open(t), store.ChurchConfig{ChurchName: "默认", AdminPassword: "pw"}, store.WithClock(clock))
	pub := &recordingPublisher{}
	return &Deps{Store: st, MQ: pub}, pub
}

func newTestApp(d *Deps) *fiber.App {
	return testutil.NewApp(func(app *fiber.App) {
		app.Post("/admin/save", SaveHandler(d))
		app.Post("/admin/save-password", SavePasswordHandler(d))
		app.Get("/admin/collections", CollectionsHandler(d))
		app.Get("/admin/edit/:id", EditHandler(d))
		app.Delete("/admin/delete/:id", DeleteHandler(d))
		app.Post("/admin/delete-multiple", DeleteMultipleHandler(d))
		app.Get("/admin/search", SearchHandler(d))
	})
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res.StatusCode, body
}

func jsonRequest(method, target string, v any) *http.Request {
	b, _ := json.Marshal(v)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func saveJSON(t *testing.T, app *fiber.App, req SaveRequest) int64 {
	t.Helper()
	status, body := do(t, app, jsonRequest(http.MethodPost, "/admin/save", req))
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("save: status=%d body=%v", status, body)
	}
	return int64(body["collectionId"].(float64))
}

func TestSave_JSON(t *testing.T) {
	d, pub := newTestDeps(t)
	app := newTestApp(d)
	id := saveJSON(t, app, SaveRequest{
		ChurchName: "郭溪教会",
		WeekLabel:  "2025年三月二周",
		Songs: []store.SongInput{
			{Title: "奇异恩典", AudioURL: "https://a/1.mp3", Visible: true, SheetURLs: []string{"s1", "s2"}},
			{Title: ""},
			{Title: "你真伟大", Visible: false},
		},
	})

	col, err := d.Store.GetCollection(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(col.Songs) != 2 || col.Songs[0].Title != "奇异恩典" || len(col.Songs[0].Sheets) != 2 || col.Songs[1].Visible {
		t.Fatalf("collection=%+v", col)
	}
	if cfg := d.Store.GetConfig(context.Background()); cfg.ChurchName != "郭溪教会" {
		t.Fatalf("church name=%q", cfg.ChurchName)
	}
	if len(pub.keys) != 1 || pub.keys[0] != mqx.EventCollectionSaved {
		t.Fatalf("events=%v", pub.keys)
	}
}

func TestSave_FlatForm(t *testing.T) {
	d, _ := newTestDeps(t)
	app := newTestApp(d)
	form := map[string]string{
		"churchName":       "",
		"weekLabel":        "W1",
		"song_0_title":     "A",
		"song_0_audioUrl":  "https://a/a.mp3",
		"song_0_visible":   "on",
		"song_0_sheet_0":   "a0",
		"song_0_sheet_1":   "",
		"song_0_sheet_2":   "a2",
		"song_1_title":     "B",
		"song_3_title":     "after gap",
		"song_1_sheet_1":   "unreachable",
		"song_1_audioUrl":  "",
	}
	status, body := do(t, app, testutil.MultipartRequest(http.MethodPost, "/admin/save", form))
	if status != http.StatusOK {
		t.Fatalf("status=%d body=%v", status, body)
	}
	id := int64(body["collectionId"].(float64))
	col, err := d.Store.GetCollection(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(col.Songs) != 2 {
		t.Fatalf("songs=%+v", col.Songs)
	}
	a, b := col.Songs[0], col.Songs[1]
	if !a.Visible || a.AudioURL != "https://a/a.mp3" || len(a.Sheets) != 2 || a.Sheets[1].ImageURL != "a2" || a.Sheets[1].SortOrder != 2 {
		t.Fatalf("song A=%+v", a)
	}
	if b.Visible || len(b.Sheets) != 0 {
		t.Fatalf("song B=%+v", b)
	}
	if cfg := d.Store.GetConfig(context.Background()); cfg.ChurchName != dbtest.DefaultSeed.ChurchName {
		t.Fatalf("empty church name must not overwrite: %q", cfg.ChurchName)
	}
}

func TestSave_Urlencoded(t *testing.T) {
	d, _ := newTestDeps(t)
	app := newTestApp(d)
	form := url.Values{"weekLabel": {"W"}, "song_0_title": {"only"}, "song_0_visible": {"1"}}
	status, body := do(t, app, testutil.FormRequest(http.MethodPost, "/admin/save", form))
	if status != http.StatusOK {
		t.Fatalf("status=%d body=%v", status, body)
	}
	col, _ := d.Store.GetCollection(context.Background(), int64(body["collectionId"].(float64)))
	if len(col.Songs) != 1 || !col.Songs[0].Visible {
		t.Fatalf("songs=%+v", col.Songs)
	}
}

func TestSave_Validation(t *testing.T) {
	d, pub := newTestDeps(t)
	app := newTestApp(d)

	status, body := do(t, app, testutil.FormRequest(http.MethodPost, "/admin/save", url.Values{"weekLabel": {" "}}))
	if status != http.StatusBadRequest || body["error"] != "周次标签不能为空" {
		t.Fatalf("empty label: status=%d body=%v", status, body)
	}

	status, _ = do(t, app, testutil.FormRequest(http.MethodPost, "/admin/save", url.Values{"weekLabel": {"W"}, "collectionId": {"x"}}))
	if status != http.StatusBadRequest {
		t.Fatalf("bad id: status=%d", status)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/save", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	if status, _ = do(t, app, req); status != http.StatusBadRequest {
		t.Fatalf("bad json: status=%d", status)
	}

	status, body = do(t, app, jsonRequest(http.MethodPost, "/admin/save", SaveRequest{WeekLabel: "W", CollectionID: 404}))
	if status != http.StatusNotFound || body["error"] != msgCollectionNotFound {
		t.Fatalf("unknown id: status=%d body=%v", status, body)
	}
	if len(pub.keys) != 0 {
		t.Fatalf("events on failed saves: %v", pub.keys)
	}
}

func TestSave_SameLabelReusesID(t *testing.T) {
	d, _ := newTestDeps(t)
	app := newTestApp(d)
	a := saveJSON(t, app, SaveRequest{WeekLabel: "W", Songs: []store.SongInput{{Title: "x"}}})
	b := saveJSON(t, app, SaveRequest{WeekLabel: "W", Songs: []store.SongInput{{Title: "y"}}})
	if a != b {
		t.Fatalf("ids differ: %d %d", a, b)
	}
	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/admin/collections", nil))
	if status != http.StatusOK || body["total"].(float64) != 1 {
		t.Fatalf("status=%d body=%v", status, body)
	}
}

func TestSavePassword(t *testing.T) {
	d, _ := newTestDeps(t)
	app := newTestApp(d)
	status, body := do(t, app, testutil.FormRequest(http.MethodPost, "/admin/save-password", url.Values{"newPassword": {"n3w"}}))
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("status=%d body=%v", status, body)
	}
	if cfg := d.Store.GetConfig(context.Background()); cfg.AdminPassword != "n3w" {
		t.Fatalf("password=%q", cfg.AdminPassword)
	}
	status, _ = do(t, app, testutil.FormRequest(http.MethodPost, "/admin/save-password", url.Values{}))
	if status != http.StatusBadRequest {
		t.Fatalf("empty: status=%d", status)
	}
}

func TestCollectionsPaging(t *testing.T) {
	d, _ := newTestDeps(t)
	app := newTestApp(d)
	for _, l := range []string{"a", "b", "c"} {
		saveJSON(t, app, SaveRequest{WeekLabel: l, Songs: []store.SongInput{{Title: "s-" + l, Visible: true}}})
	}
	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/admin/collections?page=2&perPage=2", nil))
	if status != http.StatusOK {
		t.Fatalf("status=%d", status)
	}
	cols := body["collections"].([]any)
	if len(cols) != 1 || body["total"].(float64) != 3 || body["page"].(float64) != 2 || body["perPage"].(float64) != 2 {
		t.Fatalf("body=%v", body)
	}
	if cols[0].(map[string]any)["collection_week_label"] != "a" {
		t.Fatalf("oldest should be last: %v", cols[0])
	}
	// summaries carry no song list; edit/:id returns the songs
	if _, ok := cols[0].(map[string]any)["songs"]; ok {
		t.Fatalf("summary must not carry songs: %v", cols[0])
	}
}

func TestEditAndDelete(t *testing.T) {
	d, pub := newTestDeps(t)
	app := newTestApp(d)
	id := saveJSON(t, app, SaveRequest{WeekLabel: "W", Songs: []store.SongInput{{Title: "s", SheetURLs: []string{"u"}}}})

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/admin/edit/"+itoa(id), nil))
	if status != http.StatusOK {
		t.Fatalf("edit: status=%d", status)
	}
	col := body["collection"].(map[string]any)
	songs := col["songs"].([]any)
	sheets := songs[0].(map[string]any)["sheets"].([]any)
	if col["collection_week_label"] != "W" || len(songs) != 1 || sheets[0].(map[string]any)["image_url"] != "u" {
		t.Fatalf("edit body=%v", body)
	}

	for _, path := range []string{"/admin/edit/999", "/admin/edit/abc"} {
		if status, _ := do(t, app, httptest.NewRequest(http.MethodGet, path, nil)); status != http.StatusNotFound {
			t.Fatalf("%s: status=%d", path, status)
		}
	}

	status, body = do(t, app, httptest.NewRequest(http.MethodDelete, "/admin/delete/"+itoa(id), nil))
	if status != http.StatusOK || body["message"] != "Collection deleted successfully" {
		t.Fatalf("delete: status=%d body=%v", status, body)
	}
	status, _ = do(t, app, httptest.NewRequest(http.MethodDelete, "/admin/delete/"+itoa(id), nil))
	if status != http.StatusNotFound {
		t.Fatalf("second delete: status=%d", status)
	}
	if pub.keys[len(pub.keys)-1] != mqx.EventCollectionDeleted {
		t.Fatalf("events=%v", pub.keys)
	}
}

func TestDeleteMultiple(t *testing.T) {
	d, _ := newTestDeps(t)
	app := newTestApp(d)
	a := saveJSON(t, app, SaveRequest{WeekLabel: "a"})
	b := saveJSON(t, app, SaveRequest{WeekLabel: "b"})
	saveJSON(t, app, SaveRequest{WeekLabel: "c"})

	ids := `[` + itoa(a) + `,"` + itoa(b) + `"]`
	status, body := do(t, app, testutil.FormRequest(http.MethodPost, "/admin/delete-multiple", url.Values{"ids": {ids}}))
	if status != http.StatusOK || body["deleted"].(float64) != 2 {
		t.Fatalf("status=%d body=%v", status, body)
	}

	cases := []struct {
		ids    string
		status int
	}{
		{"", http.StatusBadRequest},
		{"not json", http.StatusBadRequest},
		{"[]", http.StatusBadRequest},
		{`[1.5]`, http.StatusBadRequest},
		{`[` + itoa(a) + `]`, http.StatusNotFound},
	}
	for _, tc := range cases {
		status, _ := do(t, app, testutil.FormRequest(http.MethodPost, "/admin/delete-multiple", url.Values{"ids": {tc.ids}}))
		if status != tc.status {
			t.Fatalf("%q: status=%d want %d", tc.ids, status, tc.status)
		}
	}
	_, body = do(t, app, httptest.NewRequest(http.MethodGet, "/admin/collections", nil))
	if body["total"].(float64) != 1 {
		t.Fatalf("remaining=%v", body["total"])
	}
}

func TestSearch_WithoutIndex(t *testing.T) {
	d, _ := newTestDeps(t)
	app := newTestApp(d)
	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/admin/search?q=恩典", nil))
	if status != http.StatusOK || body["total"].(float64) != 0 || len(body["hits"].([]any)) != 0 {
		t.Fatalf("status=%d body=%v", status, body)
	}
	if status, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/admin/search", nil)); status != http.StatusBadRequest {
		t.Fatalf("missing q: status=%d", status)
	}
}
