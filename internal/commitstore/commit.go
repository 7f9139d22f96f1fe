// Package commitstore holds the version history of one document.
//
// A store is a set of immutable commits keyed by id, each optionally
// pointing at one earlier parent, plus the id of the checked-out commit
// (HEAD). It is persisted as a single JSON sidecar file and accepts the
// older on-disk shapes written by previous releases.
package commitstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// TimestampLayout is used for the "timestamp" field of new records.
	TimestampLayout = time.RFC3339Nano

	// DisplayLayout is used for the "display_time" field.
	DisplayLayout = "2006-01-02 15:04:05"

	idTimeLayout = "20060102_150405"
)

// legacyTimestampLayouts covers ISO-8601 strings without a zone, as written
// by earlier releases.
var legacyTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Commit is one recorded snapshot of the document.
type Commit struct {
	ID          string
	Parent      string // empty when the commit is a root
	Message     string
	Timestamp   time.Time
	DisplayTime string
	Filename    string // snapshot artifact, relative to the versions directory
	Preview     string // thumbnail artifact; empty when none was produced
}

// ShortID returns the short form of the id shown in the graph popup.
func (c Commit) ShortID() string { return ShortID(c.ID) }

// ShortID returns the random suffix of a generated id, or the first eight
// characters of any other id.
func ShortID(id string) string {
	if i := strings.LastIndexByte(id, '_'); i >= 0 && len(id)-i-1 == 8 && strings.HasPrefix(id, "v_") && strings.Count(id, "_") == 3 {
		return id[i+1:]
	}
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// NewID returns a fresh id for a commit created at t:
// v_YYYYMMDD_HHMMSS_<8 hex>. The time part keeps ids readable and roughly
// ordered; the random suffix makes ids unique within a second.
func NewID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("v_%s_%s", t.Format(idTimeLayout), suffix)
}

// record is the on-disk form of a Commit.
type record struct {
	ID          string  `json:"id"`
	Parent      *string `json:"parent"`
	Message     string  `json:"message"`
	Timestamp   string  `json:"timestamp"`
	DisplayTime string  `json:"display_time"`
	Filename    string  `json:"filename"`
	Preview     *string `json:"preview"`
}

func toRecord(c Commit) record {
	r := record{
		ID:          c.ID,
		Message:     c.Message,
		Timestamp:   c.Timestamp.Format(TimestampLayout),
		DisplayTime: c.DisplayTime,
		Filename:    c.Filename,
	}
	if c.Parent != "" {
		p := c.Parent
		r.Parent = &p
	}
	if c.Preview != "" {
		p := c.Preview
		r.Preview = &p
	}
	return r
}

// toCommit validates a decoded record. fallbackID is used when the record
// carries no id of its own (id-keyed maps).
func (r record) toCommit(fallbackID string) (Commit, error) {
	id := r.ID
	if id == "" {
		id = fallbackID
	}
	if id == "" {
		return Commit{}, fmt.Errorf("record has no id")
	}
	if r.Timestamp == "" {
		return Commit{}, fmt.Errorf("record %s has no timestamp", id)
	}
	// An unreadable timestamp keeps the record at the zero time, which
	// sorts it before every dated commit.
	ts, _ := parseTimestamp(r.Timestamp)

	c := Commit{
		ID:          id,
		Message:     r.Message,
		Timestamp:   ts,
		DisplayTime: r.DisplayTime,
		Filename:    r.Filename,
	}
	if r.Parent != nil && *r.Parent != id {
		c.Parent = *r.Parent
	}
	if r.Preview != nil {
		c.Preview = *r.Preview
	}
	if c.DisplayTime == "" {
		c.DisplayTime = r.Timestamp
		if !ts.IsZero() {
			c.DisplayTime = ts.Format(DisplayLayout)
		}
	}
	return c, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range legacyTimestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
