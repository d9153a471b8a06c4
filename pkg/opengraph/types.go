package opengraph

import "time"

// Data represents OpenGraph metadata extracted from a webpage
type Data struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	SiteName    string    `json:"site_name"`
	FetchedAt   time.Time `json:"fetched_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// PreviewImage is a downloaded preview image ready for upload
type PreviewImage struct {
	Bytes       []byte
	ContentType string
}

// Constants for OpenGraph caching and image download
const (
	DefaultCacheHours = 24
	DefaultDBFile     = "opengraph.db"

	// MaxImageBytes is the hard ceiling for a downloaded preview image.
	// Kept below the posting API's blob size limit.
	MaxImageBytes = 950_000
)
