package rpc

import (
	"log/slog"
	"time"

	"go.klb.dev/clipstash/internal/codec"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/hub"
)

// ThumbnailSize bounds the longest side of image previews in list results.
const ThumbnailSize = 64

// Item is the wire form of a history.Record. Text records carry their
// content in Text; image records carry base64 PNG in Image (single-record
// lookups) or Thumbnail (lists).
type Item struct {
	ID          int64     `json:"id"`
	SourceApp   string    `json:"source_app"`
	IconPath    string    `json:"icon_path,omitempty"`
	ContentType string    `json:"content_type"`
	Timestamp   time.Time `json:"timestamp"`
	Size        int       `json:"size"`
	Text        string    `json:"text,omitempty"`
	Image       string    `json:"image,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
}

// ItemFromRecord converts rec. full selects the complete image over a
// thumbnail.
func ItemFromRecord(rec history.Record, full bool) Item {
	it := Item{
		ID:          rec.ID,
		SourceApp:   rec.SourceApp,
		IconPath:    rec.IconPath,
		ContentType: string(rec.ContentType),
		Timestamp:   rec.Timestamp,
		Size:        len(rec.Content),
	}
	switch {
	case rec.ContentType == history.Text:
		it.Text = rec.Text()
	case full:
		it.Image = rec.Base64()
	case len(rec.Content) > 0:
		thumb, err := codec.Thumbnail(rec.Content, ThumbnailSize)
		if err != nil {
			slog.Debug("thumbnail failed", "id", rec.ID, "err", err)
			break
		}
		it.Thumbnail = codec.EncodeBase64(thumb)
	}
	return it
}

func itemsFromRecords(recs []history.Record) []Item {
	out := make([]Item, len(recs))
	for i, r := range recs {
		out[i] = ItemFromRecord(r, false)
	}
	return out
}

// ListRequest asks for the Limit most recent records; zero or less means
// the whole history.
type ListRequest struct {
	Limit int `json:"limit"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type IDRequest struct {
	ID int64 `json:"id"`
}

type ItemsResponse struct {
	Items []Item `json:"items"`
}

type ItemResponse struct {
	Item Item `json:"item"`
}

type StatusRequest struct{}

type StatusResponse struct {
	Version     string     `json:"version"`
	Backend     string     `json:"backend"`
	Database    string     `json:"database"`
	Records     int        `json:"records"`
	Subscribers int        `json:"subscribers"`
	StartedAt   time.Time  `json:"started_at"`
	Latest      *hub.Event `json:"latest,omitempty"`
}

type WatchRequest struct{}
