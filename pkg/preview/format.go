// Package preview provides an interactive dry-run view of the publish plan
// using a Bubble Tea TUI.
package preview

import (
	"fmt"
	"strings"
	"time"

	"github.com/lepinkainen/skypost/internal/bluesky"
	"github.com/lepinkainen/skypost/pkg/feed"
)

// Entry pairs a planned feed item with the post that would be published
// for it.
type Entry struct {
	Item feed.Item
	Post bluesky.Post
}

// wrapText wraps text to the specified width, breaking at word boundaries
// when possible.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = 70
	}

	var result strings.Builder
	var line strings.Builder
	lineLen := 0

	words := strings.Fields(text)
	for i, word := range words {
		wordLen := len(word)

		if lineLen > 0 && lineLen+1+wordLen > width {
			result.WriteString(line.String())
			result.WriteString("\n")
			line.Reset()
			lineLen = 0
		}

		if lineLen > 0 {
			line.WriteString(" ")
			lineLen++
		}

		line.WriteString(word)
		lineLen += wordLen

		if i == len(words)-1 {
			result.WriteString(line.String())
		}
	}

	return result.String()
}

// FormatCompactListItem formats a single planned entry in compact list format
// Example: "1. 2025-06-02T12:00:00Z - Post Title"
func FormatCompactListItem(index int, entry Entry) string {
	title := entry.Item.Title
	dateISO := entry.Item.PublishedAt.Format(time.RFC3339)

	const maxTitleLength = 70
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength-3] + "..."
	}

	return fmt.Sprintf("%2d. %s  %s", index+1, dateISO, title)
}

// FormatDetailedItem formats a planned entry with all metadata.
func FormatDetailedItem(entry Entry) string {
	var b strings.Builder

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")
	b.WriteString(fmt.Sprintf("Title: %s\n", entry.Item.Title))
	b.WriteString(fmt.Sprintf("Link: %s\n", entry.Item.Link))

	if !entry.Item.PublishedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Published: %s\n", formatTimeAgo(entry.Item.PublishedAt)))
	}

	if entry.Post.Language != "" {
		b.WriteString(fmt.Sprintf("Language: %s\n", entry.Post.Language))
	}

	if entry.Post.Description != "" {
		wrapped := wrapText(entry.Post.Description, 70)
		b.WriteString(fmt.Sprintf("\nEmbed description:\n%s\n", wrapped))
	}

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

// FormatRecordItem renders the post record payload that would be sent to the
// server, pretty-printed.
func FormatRecordItem(entry Entry) string {
	payload, err := bluesky.RecordJSON(entry.Post, entry.Item.PublishedAt)
	if err != nil {
		return fmt.Sprintf("Error rendering record: %s", err)
	}
	return string(payload)
}

// formatTimeAgo formats a time.Time as a human-readable "X ago" string
func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		mins := int(duration.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
