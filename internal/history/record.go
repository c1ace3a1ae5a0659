package history

import (
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/clipstash/internal/codec"
)

// TimeLayout is the on-disk timestamp format. Values are always UTC.
const TimeLayout = "2006-01-02 15:04:05"

// UnknownApp is stored as source_app when the focused application could not
// be resolved.
const UnknownApp = "Unknown"

// ContentType discriminates the two supported payload kinds.
type ContentType string

const (
	Text  ContentType = "TEXT"
	Image ContentType = "IMAGE"
)

// ParseContentType validates a stored or user supplied type name.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case Text, Image:
		return ContentType(s), nil
	default:
		return "", fmt.Errorf("unknown content type %q", s)
	}
}

// Valid reports whether t is one of the supported types.
func (t ContentType) Valid() bool { return t == Text || t == Image }

// Record is one persisted clipboard capture. Timestamp is the last time this
// exact content was active on the clipboard, not its creation time.
type Record struct {
	ID          int64       `json:"id"`
	SourceApp   string      `json:"source_app"`
	IconPath    string      `json:"icon_path"`
	ContentType ContentType `json:"content_type"`
	Content     []byte      `json:"-"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Text returns the content as a string, repairing invalid UTF-8. It is only
// meaningful for Text records.
func (r Record) Text() string { return codec.DecodeText(r.Content) }

// Base64 returns the content base64 encoded, the display form for images.
func (r Record) Base64() string { return codec.EncodeBase64(r.Content) }

func formatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

// decodeRow converts raw column values into a Record. Anomalies in a single
// row are repaired in place so one bad row never fails a whole query.
func decodeRow(id int64, sourceApp, iconPath, contentType string, content, ts any, now time.Time) Record {
	r := Record{ID: id, SourceApp: sourceApp, IconPath: iconPath}

	typ, err := ParseContentType(contentType)
	if err != nil {
		slog.Warn("history row has unexpected content type, treating as text", "id", id, "content_type", contentType)
		typ = Text
	}
	r.ContentType = typ

	switch v := content.(type) {
	case []byte:
		r.Content = append([]byte(nil), v...)
	case string:
		r.Content = []byte(v)
	default:
		slog.Warn("history row has unexpected content encoding", "id", id, "go_type", fmt.Sprintf("%T", content))
		r.Content = []byte{}
	}

	r.Timestamp = parseTimestamp(id, ts, now)
	return r
}

func parseTimestamp(id int64, ts any, now time.Time) time.Time {
	var s string
	switch v := ts.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		return v.UTC()
	}
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		slog.Warn("history row has unparsable timestamp, substituting now", "id", id, "timestamp", ts)
		return now.UTC().Truncate(time.Second)
	}
	return t
}
