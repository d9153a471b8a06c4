package feed

import (
	"log/slog"
	"strings"
)

// DefaultDenylist contains title markers for non-article entries that should
// never be crossposted. Matched as exact substrings against entry titles.
var DefaultDenylist = []string{
	"[Anzeige]",
	"[Sponsored]",
	"ADVERTORIAL",
	"In eigener Sache",
}

// Filter validates raw feed entries before they reach reconciliation.
type Filter struct {
	denylist []string
}

// NewFilter creates an eligibility filter. Extra markers are appended to the
// built-in denylist.
func NewFilter(extra ...string) *Filter {
	denylist := make([]string, 0, len(DefaultDenylist)+len(extra))
	denylist = append(denylist, DefaultDenylist...)
	denylist = append(denylist, extra...)
	return &Filter{denylist: denylist}
}

// SetDenylist replaces the filter's denylist wholesale. Used when the marker
// list is loaded from a shared remote config.
func (f *Filter) SetDenylist(markers []string) {
	f.denylist = markers
}

// Eligible returns the entries that may be considered for publishing.
// Entries missing a title, link or timestamp are dropped, as are entries whose
// title matches a denylist marker.
func (f *Filter) Eligible(items []Item) []Item {
	eligible := make([]Item, 0, len(items))

	for _, item := range items {
		if item.Title == "" || item.Link == "" || item.PublishedAt.IsZero() {
			slog.Debug("Dropping incomplete feed entry", "title", item.Title, "link", item.Link)
			continue
		}
		if marker := f.matchDenylist(item.Title); marker != "" {
			slog.Debug("Dropping denylisted entry", "title", item.Title, "marker", marker)
			continue
		}
		eligible = append(eligible, item)
	}

	return eligible
}

// matchDenylist returns the first matching marker, or "" if the title is clean.
func (f *Filter) matchDenylist(title string) string {
	for _, marker := range f.denylist {
		if strings.Contains(title, marker) {
			return marker
		}
	}
	return ""
}
