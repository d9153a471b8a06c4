// Package feed fetches and validates entries from an RSS/Atom feed.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// ErrFeedUnavailable indicates the feed could not be fetched or parsed.
// Callers should treat this as a retryable, run-aborting condition.
var ErrFeedUnavailable = errors.New("feed unavailable")

// Item is a single validated feed entry. Link doubles as the dedupe identifier.
type Item struct {
	Title       string
	Link        string
	PublishedAt time.Time
	Summary     string
}

// Fetcher retrieves entries from a feed URL.
type Fetcher struct {
	parser *gofeed.Parser
}

// NewFetcher creates a feed fetcher with a bounded-timeout HTTP client.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "skypost/1.0 (+https://github.com/lepinkainen/skypost)"

	return &Fetcher{parser: parser}
}

// Fetch downloads and parses the feed, returning its entries in feed order.
// Entries without a published time fall back to the updated time; entries with
// neither are returned with a zero timestamp and left for the eligibility
// filter to discard.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	parsed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFeedUnavailable, url, err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		var publishedAt time.Time
		if entry.PublishedParsed != nil {
			publishedAt = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			publishedAt = *entry.UpdatedParsed
		}

		items = append(items, Item{
			Title:       entry.Title,
			Link:        entry.Link,
			PublishedAt: publishedAt,
			Summary:     entry.Description,
		})
	}

	slog.Debug("Fetched feed", "url", url, "entries", len(items))
	return items, nil
}
