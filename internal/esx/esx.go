package esx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	es8 "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/samber/lo"

	"github.com/kylinpoet/song-for-guoxi/internal/config"
)

type Client = es8.Client

// Open returns nil when no addresses are configured; every helper below
// treats a nil client as a disabled index.
func Open(cfg *config.Config) (*Client, func(), error) {
	addrs := SplitAddrs(cfg.ES.Addrs)
	if len(addrs) == 0 {
		return nil, func() {}, nil
	}
	es, err := es8.NewClient(es8.Config{Addresses: addrs, Username: cfg.ES.Username, Password: cfg.ES.Password})
	if err != nil {
		return nil, func() {}, err
	}
	return es, func() {}, nil
}

// SplitAddrs parses a comma separated address list, dropping blanks.
func SplitAddrs(raw string) []string {
	return lo.FilterMap(strings.Split(raw, ","), func(s string, _ int) (string, bool) {
		t := strings.TrimSpace(s)
		return t, t != ""
	})
}

// CollectionDoc is the searchable projection of a song collection.
type CollectionDoc struct {
	ID          int64    `json:"id"`
	WeekLabel   string   `json:"week_label"`
	SongTitles  []string `json:"song_titles"`
	PublishDate string   `json:"publish_date"`
	CreatedAt   string   `json:"created_at"`
}

// SearchHit is one matching collection.
type SearchHit struct {
	CollectionDoc
	Score float64 `json:"score"`
}

// SearchResult is a page of hits plus the total match count.
type SearchResult struct {
	Total int         `json:"total"`
	Hits  []SearchHit `json:"hits"`
}

func IndexCollection(ctx context.Context, es *Client, index string, doc CollectionDoc) error {
	if es == nil {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := es.Index(index, bytes.NewReader(b),
		es.Index.WithDocumentID(docID(doc.ID)),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return fmtError(res)
	}
	return nil
}

// DeleteCollection removes a document. A missing document is not an error.
func DeleteCollection(ctx context.Context, es *Client, index string, id int64) error {
	if es == nil {
		return nil
	}
	res, err := es.Delete(index, docID(id), es.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest && res.StatusCode != http.StatusNotFound {
		return fmtError(res)
	}
	return nil
}

// SearchQuery builds the match query over week labels and song titles.
func SearchQuery(query string, from, size int) map[string]any {
	return map[string]any{
		"from": from,
		"size": size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"week_label^2", "song_titles"},
			},
		},
	}
}

func SearchCollections(ctx context.Context, es *Client, index string, query string, from, size int) (*SearchResult, error) {
	if es == nil {
		return &SearchResult{Hits: []SearchHit{}}, nil
	}
	b, err := json.Marshal(SearchQuery(query, from, size))
	if err != nil {
		return nil, err
	}
	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return nil, fmtError(res)
	}
	return decodeSearch(res)
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64       `json:"_score"`
			Source CollectionDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeSearch(res *esapi.Response) (*SearchResult, error) {
	var raw searchResponse
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	out := &SearchResult{Total: raw.Hits.Total.Value, Hits: make([]SearchHit, 0, len(raw.Hits.Hits))}
	for _, h := range raw.Hits.Hits {
		out.Hits = append(out.Hits, SearchHit{CollectionDoc: h.Source, Score: h.Score})
	}
	return out, nil
}

// helpers
func docID(id int64) string              { return strconv.FormatInt(id, 10) }
func fmtError(res *esapi.Response) error { return fmt.Errorf("es error: %s", res.String()) }
