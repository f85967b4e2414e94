package store

import "time"

// ChurchConfig is the singleton configuration row.
type ChurchConfig struct {
	ID            int64     `json:"id"`
	ChurchName    string    `json:"church_name"`
	AdminPassword string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Collection is one week's song set keyed by its week label.
type Collection struct {
	ID          int64     `json:"id"`
	Name        string    `json:"collection_name"`
	WeekLabel   string    `json:"collection_week_label"`
	PublishDate string    `json:"publish_date"`
	CreatedAt   time.Time `json:"created_at"`
	Songs       []Song    `json:"songs"`
}

// Song belongs to a collection; Sheets are in display order.
type Song struct {
	ID           int64        `json:"id"`
	CollectionID int64        `json:"collection_id"`
	Title        string       `json:"title"`
	AudioURL     string       `json:"audio_url"`
	Visible      bool         `json:"visible"`
	SortOrder    int          `json:"sort_order"`
	Sheets       []SheetImage `json:"sheets"`
}

// SheetImage is one page of sheet music for a song.
type SheetImage struct {
	ID        int64  `json:"id"`
	SongID    int64  `json:"song_id"`
	ImageURL  string `json:"image_url"`
	SortOrder int    `json:"sort_order"`
}

// SongInput is one submitted song in a save request.
type SongInput struct {
	Title     string   `json:"title"`
	AudioURL  string   `json:"audioUrl"`
	Visible   bool     `json:"visible"`
	SheetURLs []string `json:"sheetUrls"`
}

// SaveInput is a full collection snapshot to persist. CollectionID, when
// non-zero, selects the row to overwrite; otherwise the week label decides.
type SaveInput struct {
	CollectionID int64
	WeekLabel    string
	Songs        []SongInput
}

// CollectionSummary is a Collection without its songs, as listed in pages.
type CollectionSummary struct {
	ID          int64     `json:"id"`
	Name        string    `json:"collection_name"`
	WeekLabel   string    `json:"collection_week_label"`
	PublishDate string    `json:"publish_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Page is one page of collection summaries.
type Page struct {
	Collections []CollectionSummary `json:"collections"`
	Total       int                 `json:"total"`
	Page        int                 `json:"page"`
	PerPage     int                 `json:"perPage"`
}
