package opengraph

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lepinkainen/skypost/pkg/urlutils"
)

// FetchPreviewImage scrapes pageURL for a preview image reference and
// downloads it. It never fails: any error (timeout, missing tag, oversize
// payload, non-image content) is logged at debug level and yields nil, so the
// caller degrades to a text-only post.
func (f *Fetcher) FetchPreviewImage(ctx context.Context, pageURL string) *PreviewImage {
	data, err := f.FetchData(ctx, pageURL)
	if err != nil || data == nil || data.Image == "" {
		slog.Debug("No preview image for page", "url", pageURL, "error", err)
		return nil
	}

	imageURL, err := urlutils.ResolveURL(pageURL, data.Image)
	if err != nil {
		slog.Debug("Failed to resolve image URL", "page", pageURL, "image", data.Image, "error", err)
		return nil
	}

	img := f.downloadImage(ctx, imageURL)
	if img == nil {
		return nil
	}

	slog.Debug("Downloaded preview image", "url", imageURL,
		"bytes", len(img.Bytes), "contentType", img.ContentType)
	return img
}

// downloadImage fetches the image bytes, enforcing MaxImageBytes.
func (f *Fetcher) downloadImage(ctx context.Context, imageURL string) *PreviewImage {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		slog.Debug("Failed to create image request", "url", imageURL, "error", err)
		return nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; skypost/1.0; OpenGraph fetcher)")

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Debug("Image download failed", "url", imageURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("Image download bad status", "url", imageURL, "status", resp.StatusCode)
		return nil
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		slog.Debug("Image URL returned non-image content", "url", imageURL, "contentType", contentType)
		return nil
	}

	// Read one byte past the ceiling to detect oversize payloads
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		slog.Debug("Failed to read image body", "url", imageURL, "error", err)
		return nil
	}
	if len(body) > MaxImageBytes {
		slog.Debug("Image exceeds size ceiling, skipping", "url", imageURL, "limit", MaxImageBytes)
		return nil
	}

	return &PreviewImage{Bytes: body, ContentType: contentType}
}
