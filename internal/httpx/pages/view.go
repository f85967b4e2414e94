package pages

import (
	"strings"

	"github.com/kylinpoet/song-for-guoxi/internal/store"
)

// Tab keys shared by the template and the page script.
const (
	TabCurrent = "currentWeek"
	TabNext    = "nextWeek"
)

type track struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type songView struct {
	Title    string
	AudioURL string
	// Track is the song's position in its tab playlist, or -1 without audio.
	Track int
}

type slideView struct {
	ImageURL string
	Title    string
}

type weekView struct {
	Key    string
	Title  string
	Label  string
	Active bool
	Songs  []songView
	Slides []slideView
}

type homeView struct {
	ChurchName  string
	HeaderLabel string
	Weeks       []weekView
	Playlists   map[string][]track
}

// headerLabel is the part of a week label after the year, e.g. "三月二周".
func headerLabel(label string) string {
	_, after, found := strings.Cut(label, "年")
	if !found {
		return ""
	}
	return after
}

// buildWeek keeps visible songs only. Songs with audio join the playlist in
// display order; sheets of visible songs become carousel slides.
func buildWeek(key, title string, col store.Collection) (weekView, []track) {
	w := weekView{Key: key, Title: title, Label: col.WeekLabel, Songs: []songView{}, Slides: []slideView{}}
	playlist := []track{}
	for _, sg := range col.Songs {
		if !sg.Visible {
			continue
		}
		sv := songView{Title: sg.Title, AudioURL: sg.AudioURL, Track: -1}
		if sg.AudioURL != "" {
			sv.Track = len(playlist)
			playlist = append(playlist, track{Title: sg.Title, URL: sg.AudioURL})
		}
		w.Songs = append(w.Songs, sv)
		for _, sh := range sg.Sheets {
			w.Slides = append(w.Slides, slideView{ImageURL: sh.ImageURL, Title: sg.Title})
		}
	}
	return w, playlist
}

func buildHome(churchName string, weeks store.Weeks) homeView {
	cur, curList := buildWeek(TabCurrent, "本周曲目", weeks.Current)
	next, nextList := buildWeek(TabNext, "下周曲目", weeks.Next)
	cur.Active = true
	return homeView{
		ChurchName:  churchName,
		HeaderLabel: headerLabel(weeks.Current.WeekLabel),
		Weeks:       []weekView{cur, next},
		Playlists:   map[string][]track{TabCurrent: curList, TabNext: nextList},
	}
}
