package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Test Feed</title>
	<link>https://news.example.com</link>
	<item>
		<title>Second story</title>
		<link>https://news.example.com/2</link>
		<pubDate>Mon, 02 Jun 2025 10:00:00 GMT</pubDate>
		<description>More details</description>
	</item>
	<item>
		<title>First story</title>
		<link>https://news.example.com/1</link>
		<pubDate>Sun, 01 Jun 2025 10:00:00 GMT</pubDate>
		<description>Some details</description>
	</item>
	<item>
		<title>Undated story</title>
		<link>https://news.example.com/undated</link>
	</item>
</channel>
</rss>`

func TestFetchParsesEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}))
	defer server.Close()

	fetcher := NewFetcher(5 * time.Second)
	items, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("Fetch() len = %d, want 3", len(items))
	}

	first := items[0]
	if first.Title != "Second story" {
		t.Fatalf("items[0].Title = %q, want %q", first.Title, "Second story")
	}
	if first.Link != "https://news.example.com/2" {
		t.Fatalf("items[0].Link = %q, want %q", first.Link, "https://news.example.com/2")
	}
	want := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Fatalf("items[0].PublishedAt = %v, want %v", first.PublishedAt, want)
	}
	if first.Summary != "More details" {
		t.Fatalf("items[0].Summary = %q, want %q", first.Summary, "More details")
	}

	// An entry without any date keeps a zero timestamp for the filter to drop
	if !items[2].PublishedAt.IsZero() {
		t.Fatalf("items[2].PublishedAt = %v, want zero", items[2].PublishedAt)
	}
}

func TestFetchServerErrorIsFeedUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(5 * time.Second)
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("Fetch() error = %v, want ErrFeedUnavailable", err)
	}
}

func TestFetchGarbageIsFeedUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a feed at all"))
	}))
	defer server.Close()

	fetcher := NewFetcher(5 * time.Second)
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("Fetch() error = %v, want ErrFeedUnavailable", err)
	}
}
