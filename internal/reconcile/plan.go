// Package reconcile computes which feed entries to publish in the current run.
//
// The engine is pure: it reads a feed snapshot plus the canonical dedupe state
// and produces an ordered publish plan, leaving all I/O to the caller.
package reconcile

import (
	"log/slog"
	"sort"

	"github.com/lepinkainen/skypost/pkg/feed"
	"github.com/lepinkainen/skypost/pkg/state"
)

// Default safety caps. FirstRunThreshold bounds the initial-deployment burst,
// CatchUpCap bounds the burst after the feed window rotated past the last
// known publication.
const (
	DefaultFirstRunThreshold = 5
	DefaultCatchUpCap        = 3
)

// Options tunes the safety caps.
type Options struct {
	FirstRunThreshold int
	CatchUpCap        int
}

// DefaultOptions returns the default cap configuration.
func DefaultOptions() Options {
	return Options{
		FirstRunThreshold: DefaultFirstRunThreshold,
		CatchUpCap:        DefaultCatchUpCap,
	}
}

// Plan is the outcome of one reconciliation: the entries to publish, oldest
// first, plus any entries to record as published without posting them
// (first-run backlog seeding).
type Plan struct {
	Items []feed.Item
	Seed  []feed.Item
}

// Compute reconciles eligible snapshot entries against the canonical state.
//
// Candidates are the entries not already published, sorted ascending by
// timestamp (stable for equal timestamps, preserving snapshot order). On a
// genuine first run with a backlog larger than the threshold, only the single
// most recent entry is published and the rest are seeded into the state. When
// the last known publication is no longer present in the snapshot, the plan is
// capped to the most recent CatchUpCap entries.
func Compute(eligible []feed.Item, canon *state.Canonical, opts Options) Plan {
	if opts.FirstRunThreshold <= 0 {
		opts.FirstRunThreshold = DefaultFirstRunThreshold
	}
	if opts.CatchUpCap <= 0 {
		opts.CatchUpCap = DefaultCatchUpCap
	}

	candidates := make([]feed.Item, 0, len(eligible))
	for _, item := range eligible {
		if !canon.IsPublished(item) {
			candidates = append(candidates, item)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PublishedAt.Before(candidates[j].PublishedAt)
	})

	if canon.Empty() && len(candidates) > opts.FirstRunThreshold {
		// First deployment against an existing feed: seed the whole backlog
		// and post only the newest entry.
		newest := candidates[len(candidates)-1]
		slog.Info("First run with backlog, seeding state",
			"backlog", len(candidates), "publishing", newest.Link)
		return Plan{
			Items: []feed.Item{newest},
			Seed:  candidates,
		}
	}

	if last := canon.LastLink(); last != "" && !snapshotContains(eligible, last) {
		if len(candidates) > opts.CatchUpCap {
			slog.Info("Last published link rotated out of feed, capping catch-up",
				"last_link", last, "candidates", len(candidates), "cap", opts.CatchUpCap)
			candidates = candidates[len(candidates)-opts.CatchUpCap:]
		}
	}

	return Plan{Items: candidates}
}

func snapshotContains(items []feed.Item, link string) bool {
	for _, item := range items {
		if item.Link == link {
			return true
		}
	}
	return false
}
