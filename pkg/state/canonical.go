package state

import (
	"log/slog"
	"time"

	"github.com/lepinkainen/skypost/pkg/feed"
)

// Canonical is the in-memory dedupe model the reconciliation engine operates
// on: a set of already-published links plus an optional high-water timestamp
// for publications that predate the tracked set.
type Canonical struct {
	published map[string]struct{}
	history   []string // recency order, most recent last
	highWater *time.Time
}

// NewCanonical returns an empty canonical state (first run).
func NewCanonical() *Canonical {
	return &Canonical{published: make(map[string]struct{})}
}

// Normalize converts a raw persisted record into the canonical model.
// A nil record yields an empty state. Legacy single-link records without a
// timestamp attempt to resolve one from the current feed snapshot; when the
// link is found the state is promoted to high-water mode, otherwise it falls
// back to a singleton set. Normalizing an already-canonical (history-shape)
// record is a no-op conversion.
func Normalize(rec *Record, snapshot []feed.Item) *Canonical {
	canon := NewCanonical()
	if rec.Empty() {
		return canon
	}

	if !rec.IsLegacy() {
		for _, link := range rec.History {
			canon.append(link)
		}
		return canon
	}

	canon.append(rec.LastLink)

	switch {
	case rec.LastTime != nil:
		t := *rec.LastTime
		canon.highWater = &t
	default:
		// Link-only legacy record: try to recover the timestamp from the
		// current snapshot so older entries are not republished.
		for _, item := range snapshot {
			if item.Link == rec.LastLink {
				t := item.PublishedAt
				canon.highWater = &t
				break
			}
		}
		if canon.highWater == nil {
			slog.Debug("Legacy state link not in snapshot, using set membership only",
				"link", rec.LastLink)
		}
	}

	return canon
}

// IsPublished reports whether the item has already been crossposted: the link
// is in the published set, or the item's timestamp is at or below the
// high-water mark.
func (c *Canonical) IsPublished(item feed.Item) bool {
	if _, ok := c.published[item.Link]; ok {
		return true
	}
	if c.highWater != nil && !item.PublishedAt.After(*c.highWater) {
		return true
	}
	return false
}

// MarkPublished records a successful publish: the link joins the set and the
// recency history (evicting the oldest entry past the cap), and the high-water
// mark advances when in high-water mode.
func (c *Canonical) MarkPublished(link string, publishedAt time.Time) {
	c.append(link)
	if c.highWater != nil && publishedAt.After(*c.highWater) {
		t := publishedAt
		c.highWater = &t
	}
}

// Empty reports whether no prior publication is known (genuine first run).
func (c *Canonical) Empty() bool {
	return len(c.published) == 0 && c.highWater == nil
}

// LastLink returns the most recently published link, or "" when unknown.
func (c *Canonical) LastLink() string {
	if len(c.history) == 0 {
		return ""
	}
	return c.history[len(c.history)-1]
}

// Record converts the canonical state back into the persisted history shape.
func (c *Canonical) Record() *Record {
	history := make([]string, len(c.history))
	copy(history, c.history)
	return &Record{History: history}
}

// append adds a link to the set and history, deduplicating repeat publishes
// and enforcing the history cap.
func (c *Canonical) append(link string) {
	if _, ok := c.published[link]; ok {
		return
	}
	c.published[link] = struct{}{}
	c.history = append(c.history, link)

	for len(c.history) > HistoryLimit {
		evicted := c.history[0]
		c.history = c.history[1:]
		delete(c.published, evicted)
	}
}
