// Package state persists and normalizes the dedupe record that tracks which
// feed entries have already been crossposted.
package state

import "time"

// HistoryLimit caps the number of links kept in the persisted history.
// Oldest entries are evicted first when the cap is exceeded.
const HistoryLimit = 100

// Record is the raw persisted dedupe record. Two historical shapes share this
// struct: the legacy single-link shape (LastLink, optionally LastTime) and the
// current history shape (History, most-recent last). Writes always emit the
// history shape; reads accept both.
type Record struct {
	LastLink string     `json:"last_link,omitempty"`
	LastTime *time.Time `json:"last_time,omitempty"`
	History  []string   `json:"history,omitempty"`
}

// IsLegacy reports whether the record carries the legacy single-link shape.
func (r *Record) IsLegacy() bool {
	return r != nil && len(r.History) == 0 && r.LastLink != ""
}

// Empty reports whether the record carries no dedupe information at all.
func (r *Record) Empty() bool {
	return r == nil || (len(r.History) == 0 && r.LastLink == "")
}
