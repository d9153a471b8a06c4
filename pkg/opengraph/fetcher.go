// Package opengraph scrapes pages for OpenGraph metadata and downloads preview
// images. All lookups are cached in SQLite, including failures, so repeated
// runs do not hammer the same pages.
package opengraph

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Fetcher handles OpenGraph metadata fetching with caching. Calls are strictly
// sequential; the syndication loop processes one entry at a time.
type Fetcher struct {
	client *http.Client
	db     *Database
}

// NewFetcher creates a new OpenGraph fetcher. db may be nil to disable caching.
func NewFetcher(db *Database, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		db: db,
	}
}

// FetchData fetches OpenGraph data from a URL with caching
func (f *Fetcher) FetchData(ctx context.Context, targetURL string) (*Data, error) {
	if !isValidURL(targetURL) {
		return nil, fmt.Errorf("invalid URL format: %s", targetURL)
	}

	if f.db != nil {
		cached, err := f.db.GetCachedData(targetURL)
		if err != nil {
			slog.Warn("Error reading from cache", "url", targetURL, "error", err)
		}
		if cached != nil {
			slog.Debug("Found cached OpenGraph data", "url", targetURL)
			return cached, nil
		}

		hasFailure, err := f.db.HasRecentFailure(targetURL)
		if err != nil {
			slog.Warn("Error checking recent failures", "url", targetURL, "error", err)
		}
		if hasFailure {
			slog.Debug("Skipping URL due to recent failure", "url", targetURL)
			return nil, nil
		}
	}

	data, err := f.fetchFreshData(ctx, targetURL)
	fetchSuccess := err == nil && data != nil

	if err != nil {
		slog.Debug("Failed to fetch OpenGraph data", "url", targetURL, "error", err)
		// Cache the failure with a shorter expiry
		if data == nil {
			data = &Data{
				URL:       targetURL,
				FetchedAt: time.Now(),
				ExpiresAt: time.Now().Add(1 * time.Hour),
			}
		}
	} else if data != nil {
		f.cleanupData(data)
		slog.Debug("Fetched OpenGraph data", "url", targetURL, "image", data.Image)
	}

	if f.db != nil && data != nil {
		if saveErr := f.db.SaveCachedData(data, fetchSuccess); saveErr != nil {
			slog.Warn("Failed to cache OpenGraph data", "url", targetURL, "error", saveErr)
		}
	}

	if fetchSuccess {
		return data, nil
	}

	return nil, err
}

// fetchFreshData fetches fresh OpenGraph data from a URL
func (f *Fetcher) fetchFreshData(ctx context.Context, targetURL string) (*Data, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; skypost/1.0; OpenGraph fetcher)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") &&
		!strings.Contains(strings.ToLower(contentType), "application/xhtml") {
		return nil, fmt.Errorf("not an HTML page: %s", contentType)
	}

	var reader io.ReadCloser
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer reader.Close()
	default:
		reader = resp.Body
	}

	const maxBodySize = 1024 * 1024 // 1MB limit
	body, err := io.ReadAll(io.LimitReader(reader, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	htmlContent, err := f.convertToUTF8(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to convert content to UTF-8: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	now := time.Now()
	data := &Data{
		URL:       targetURL,
		FetchedAt: now,
		ExpiresAt: now.Add(time.Duration(DefaultCacheHours) * time.Hour),
	}

	f.extractOpenGraphTags(doc, data)

	return data, nil
}

// extractOpenGraphTags recursively extracts OpenGraph meta tags from HTML
func (f *Fetcher) extractOpenGraphTags(n *html.Node, data *Data) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "meta":
			f.processMetaTag(n, data)
		case "title":
			if data.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				data.Title = strings.TrimSpace(n.FirstChild.Data)
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		f.extractOpenGraphTags(c, data)
	}
}

// processMetaTag processes individual meta tags
func (f *Fetcher) processMetaTag(n *html.Node, data *Data) {
	var property, content, name string

	for _, attr := range n.Attr {
		switch attr.Key {
		case "property":
			property = attr.Val
		case "content":
			content = attr.Val
		case "name":
			name = attr.Val
		}
	}

	switch property {
	case "og:title":
		if data.Title == "" {
			data.Title = content
		}
	case "og:description":
		if data.Description == "" {
			data.Description = content
		}
	case "og:image":
		if data.Image == "" {
			data.Image = content
		}
	case "og:site_name":
		if data.SiteName == "" {
			data.SiteName = content
		}
	}

	// Twitter card fallbacks
	if data.Image == "" && name == "twitter:image" {
		data.Image = content
	}
	if data.Description == "" && (name == "description" || name == "twitter:description") {
		data.Description = content
	}
	if data.Title == "" && name == "twitter:title" {
		data.Title = content
	}
}

// cleanupData validates and cleans up OpenGraph data
func (f *Fetcher) cleanupData(data *Data) {
	if len(data.Description) > 500 {
		data.Description = data.Description[:497] + "..."
	}
	if len(data.Title) > 200 {
		data.Title = data.Title[:197] + "..."
	}

	if data.Image != "" && !isValidURL(data.Image) {
		slog.Warn("Invalid image URL found, clearing", "url", data.Image)
		data.Image = ""
	}

	data.Title = strings.TrimSpace(data.Title)
	data.Description = strings.TrimSpace(data.Description)
	data.SiteName = strings.TrimSpace(data.SiteName)

	data.Title = strings.ReplaceAll(data.Title, "\x00", "")
	data.Description = strings.ReplaceAll(data.Description, "\x00", "")
	data.SiteName = strings.ReplaceAll(data.SiteName, "\x00", "")
}

// convertToUTF8 converts response body to UTF-8 string with proper encoding detection
func (f *Fetcher) convertToUTF8(body []byte, contentType string) (string, error) {
	reader := strings.NewReader(string(body))

	utf8Reader, err := charset.NewReader(reader, contentType)
	if err != nil {
		// If charset detection fails, assume UTF-8
		slog.Warn("Failed to detect charset, assuming UTF-8", "error", err)
		return string(body), nil
	}

	utf8Bytes, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", fmt.Errorf("failed to convert to UTF-8: %w", err)
	}

	return string(utf8Bytes), nil
}

// isValidURL checks if a URL is valid
func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}
