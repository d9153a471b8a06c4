package bluesky

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/lepinkainen/skypost/pkg/feed"
	"github.com/lepinkainen/skypost/pkg/opengraph"
	"github.com/lepinkainen/skypost/pkg/testutil"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"long string cut with marker", "hello world", 8, "hello w…"},
		{"zero limit untouched", "hello", 0, "hello"},
		{"multibyte runes cut cleanly", "äöü äöü äöü", 5, "äöü …"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.limit); got != tt.want {
				t.Fatalf("Truncate(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
			}
		})
	}
}

func TestBuildPostTrimsAndTruncates(t *testing.T) {
	item := feed.Item{
		Title:       "  Breaking news  ",
		Link:        "https://news.example.com/1",
		PublishedAt: time.Now(),
		Summary:     strings.Repeat("long summary ", 40),
	}

	post := BuildPost(item, "en", nil)

	if post.Text != "Breaking news" {
		t.Fatalf("Text = %q, want trimmed title", post.Text)
	}
	if post.Link != item.Link {
		t.Fatalf("Link = %q, want %q", post.Link, item.Link)
	}
	if got := len([]rune(post.Description)); got != DescriptionLimit {
		t.Fatalf("Description length = %d runes, want %d", got, DescriptionLimit)
	}
	if !strings.HasSuffix(post.Description, "…") {
		t.Fatalf("Description %q missing truncation marker", post.Description)
	}
	if post.Language != "en" {
		t.Fatalf("Language = %q, want en", post.Language)
	}
}

func TestBuildPostCarriesImage(t *testing.T) {
	img := &opengraph.PreviewImage{Bytes: []byte{1, 2, 3}, ContentType: "image/png"}
	post := BuildPost(feed.Item{Title: "t", Link: "https://e.com/1"}, "en", img)

	if post.Image != img {
		t.Fatal("BuildPost() did not carry the preview image")
	}
}

func TestBuildRecordGolden(t *testing.T) {
	post := BuildPost(feed.Item{
		Title:   "Breaking news",
		Link:    "https://news.example.com/1",
		Summary: "Short summary",
	}, "en", nil)

	record := buildRecord(post, time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))

	actual, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent() error = %v", err)
	}

	testutil.CompareGoldenBytes(t, "testdata/post_record.json", actual)
}

func TestBuildRecordWithoutLanguage(t *testing.T) {
	record := buildRecord(Post{Text: "t", Link: "https://e.com/1"}, time.Now())

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "langs") {
		t.Fatalf("record %s contains langs despite empty language", data)
	}
}

func TestBuildRecordWithoutLinkHasNoEmbed(t *testing.T) {
	record := buildRecord(Post{Text: "t"}, time.Now())
	if record.Embed != nil {
		t.Fatal("record has embed without a link")
	}
}
