package bluesky

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lepinkainen/skypost/pkg/feed"
	"github.com/lepinkainen/skypost/pkg/opengraph"
)

// DescriptionLimit caps the embed description length in runes; longer
// descriptions are cut and marked with an ellipsis.
const DescriptionLimit = 250

// RawBlob is an opaque blob reference as returned by uploadBlob. It is echoed
// back verbatim as the embed thumbnail.
type RawBlob = json.RawMessage

// Post is the content of a single crosspost.
type Post struct {
	Text        string
	Link        string
	Title       string
	Description string
	Language    string
	Image       *opengraph.PreviewImage
}

// BuildPost assembles the post content for a feed entry: trimmed title as the
// post text, the link as an external embed with a truncated description, and
// an optional preview image.
func BuildPost(item feed.Item, language string, image *opengraph.PreviewImage) Post {
	title := strings.TrimSpace(item.Title)

	return Post{
		Text:        title,
		Link:        item.Link,
		Title:       title,
		Description: Truncate(strings.TrimSpace(item.Summary), DescriptionLimit),
		Language:    language,
		Image:       image,
	}
}

// Truncate shortens s to at most limit runes, appending "…" when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

// feedPostRecord is the app.bsky.feed.post record schema.
type feedPostRecord struct {
	Type      string         `json:"$type"`
	Text      string         `json:"text"`
	CreatedAt string         `json:"createdAt"`
	Langs     []string       `json:"langs,omitempty"`
	Embed     *externalEmbed `json:"embed,omitempty"`
}

type externalEmbed struct {
	Type     string       `json:"$type"`
	External externalCard `json:"external"`
}

type externalCard struct {
	URI         string  `json:"uri"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Thumb       RawBlob `json:"thumb,omitempty"`
}

// buildRecord renders a Post into the record payload. The thumbnail blob is
// attached later, after upload.
func buildRecord(post Post, createdAt time.Time) *feedPostRecord {
	record := &feedPostRecord{
		Type:      "app.bsky.feed.post",
		Text:      post.Text,
		CreatedAt: createdAt.Format(time.RFC3339),
	}

	if post.Language != "" {
		record.Langs = []string{post.Language}
	}

	if post.Link != "" {
		record.Embed = &externalEmbed{
			Type: "app.bsky.embed.external",
			External: externalCard{
				URI:         post.Link,
				Title:       post.Title,
				Description: post.Description,
			},
		}
	}

	return record
}

// RecordJSON renders the record payload a Post would produce, indented for
// display. The thumbnail blob is omitted since it only exists after upload.
func RecordJSON(post Post, createdAt time.Time) ([]byte, error) {
	return json.MarshalIndent(buildRecord(post, createdAt), "", "  ")
}

func jsonMarshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
