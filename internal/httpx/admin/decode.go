package admin

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit"
	"github.com/kylinpoet/song-for-guoxi/internal/store"
)

// SaveRequest is the JSON form of a save. Songs are in display order.
// swagger:model SaveRequest
type SaveRequest struct {
	ChurchName   string            `json:"churchName" example:"郭溪教会"`
	WeekLabel    string            `json:"weekLabel" example:"2025年三月二周"`
	CollectionID int64             `json:"collectionId,omitempty"`
	Songs        []store.SongInput `json:"songs"`
}

func (r SaveRequest) input() store.SaveInput {
	return store.SaveInput{CollectionID: r.CollectionID, WeekLabel: r.WeekLabel, Songs: r.Songs}
}

// formValues is a parsed urlencoded or multipart body.
type formValues map[string][]string

func readForm(c *fiber.Ctx) formValues {
	if mf, err := c.MultipartForm(); err == nil {
		return formValues(mf.Value)
	}
	f := formValues{}
	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		f[string(k)] = append(f[string(k)], string(v))
	})
	return f
}

func (f formValues) has(key string) bool {
	_, ok := f[key]
	return ok
}

func (f formValues) get(key string) string {
	if v := f[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// decodeFlatSongs walks song_<i>_title for i = 0,1,... until one is absent,
// and song_<i>_sheet_<j> the same way for each song. Visibility is checkbox
// presence.
func decodeFlatSongs(f formValues) []store.SongInput {
	songs := []store.SongInput{}
	for i := 0; f.has(fmt.Sprintf("song_%d_title", i)); i++ {
		prefix := fmt.Sprintf("song_%d_", i)
		sg := store.SongInput{
			Title:     f.get(prefix + "title"),
			AudioURL:  f.get(prefix + "audioUrl"),
			Visible:   f.has(prefix + "visible"),
			SheetURLs: []string{},
		}
		for j := 0; f.has(fmt.Sprintf("%ssheet_%d", prefix, j)); j++ {
			sg.SheetURLs = append(sg.SheetURLs, f.get(fmt.Sprintf("%ssheet_%d", prefix, j)))
		}
		songs = append(songs, sg)
	}
	return songs
}

// decodeSave accepts either a JSON SaveRequest or the flat form encoding.
func decodeSave(c *fiber.Ctx) (SaveRequest, error) {
	var req SaveRequest
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return req, kit.BadRequest("invalid JSON body", err.Error())
		}
		return req, nil
	}

	f := readForm(c)
	req.ChurchName = f.get("churchName")
	req.WeekLabel = f.get("weekLabel")
	if raw := strings.TrimSpace(f.get("collectionId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return req, kit.BadRequest("invalid collectionId", raw)
		}
		req.CollectionID = id
	}
	req.Songs = decodeFlatSongs(f)
	return req, nil
}

// parseIDs decodes a JSON array of ids given as numbers or numeric strings.
func parseIDs(raw string) ([]int64, error) {
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case float64:
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("invalid id %v", v)
			}
			ids = append(ids, int64(v))
		case string:
			id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q", v)
			}
			ids = append(ids, id)
		default:
			return nil, fmt.Errorf("invalid id %v", v)
		}
	}
	return lo.Uniq(ids), nil
}
