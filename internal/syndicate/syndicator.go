// Package syndicate sequences one full syndication run: fetch the feed,
// reconcile against prior state, and publish the plan one entry at a time.
package syndicate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/skypost/internal/bluesky"
	"github.com/lepinkainen/skypost/internal/reconcile"
	"github.com/lepinkainen/skypost/pkg/api"
	"github.com/lepinkainen/skypost/pkg/feed"
	"github.com/lepinkainen/skypost/pkg/opengraph"
	"github.com/lepinkainen/skypost/pkg/state"
)

// FeedSource fetches the current feed snapshot.
type FeedSource interface {
	Fetch(ctx context.Context, url string) ([]feed.Item, error)
}

// MediaFetcher returns a preview image for a page, or nil when none could be
// obtained. It never fails.
type MediaFetcher interface {
	FetchPreviewImage(ctx context.Context, pageURL string) *opengraph.PreviewImage
}

// Publisher posts to the destination timeline.
type Publisher interface {
	Publish(ctx context.Context, post bluesky.Post) error
}

// StateStore persists the dedupe record.
type StateStore interface {
	Load() (*state.Record, error)
	Save(rec *state.Record) error
}

// Summary reports what a run did.
type Summary struct {
	Eligible  int
	Planned   int
	Seeded    int
	Published int
	Failed    int
}

// Syndicator owns the per-run control flow. All publishing is strictly
// sequential; overlapping runs must be prevented by the scheduler.
type Syndicator struct {
	FeedURL  string
	Language string

	Source  FeedSource
	Media   MediaFetcher
	Pub     Publisher
	Store   StateStore
	Filter  *feed.Filter
	Options reconcile.Options
	Limiter api.RateLimiter
}

// Run executes one syndication pass. It returns an error only for conditions
// the caller must act on (feed unavailable); per-item failures are logged and
// absorbed so one bad entry never blocks the rest of the batch.
func (s *Syndicator) Run(ctx context.Context) (*Summary, error) {
	eligible, canon, plan, err := s.plan(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Eligible: len(eligible),
		Planned:  len(plan.Items),
		Seeded:   len(plan.Seed),
	}

	if len(plan.Items) == 0 && len(plan.Seed) == 0 {
		slog.Info("Nothing new to publish")
		return summary, nil
	}

	// Record the seeded backlog before publishing anything, so a crash in the
	// publish loop cannot replay it next run.
	if len(plan.Seed) > 0 {
		for _, item := range plan.Seed {
			canon.MarkPublished(item.Link, item.PublishedAt)
		}
		if err := s.Store.Save(canon.Record()); err != nil {
			slog.Error("Failed to persist seeded state, aborting run", "error", err)
			return summary, nil
		}
	}

	for _, item := range plan.Items {
		if ctx.Err() != nil {
			slog.Warn("Run cancelled, stopping between items", "error", ctx.Err())
			break
		}

		if s.Limiter != nil {
			s.Limiter.Wait()
		}

		post := bluesky.BuildPost(item, s.Language, s.fetchImage(ctx, item))

		if err := s.Pub.Publish(ctx, post); err != nil {
			slog.Warn("Publish failed, skipping entry", "link", item.Link, "error", err)
			summary.Failed++
			continue
		}

		// Persist immediately after each success so a crash loses at most the
		// in-flight entry.
		canon.MarkPublished(item.Link, item.PublishedAt)
		if err := s.Store.Save(canon.Record()); err != nil {
			slog.Error("Failed to persist state, aborting run to avoid duplicates", "error", err)
			summary.Published++
			break
		}

		slog.Info("Published entry", "link", item.Link, "published_at", item.PublishedAt)
		summary.Published++
	}

	return summary, nil
}

// Plan computes the publish plan without publishing or mutating state.
// Used by the dry-run preview.
func (s *Syndicator) Plan(ctx context.Context) ([]feed.Item, error) {
	_, _, plan, err := s.plan(ctx)
	if err != nil {
		return nil, err
	}
	return plan.Items, nil
}

// plan runs the read-only half of a pass: fetch, filter, load state,
// reconcile.
func (s *Syndicator) plan(ctx context.Context) ([]feed.Item, *state.Canonical, reconcile.Plan, error) {
	snapshot, err := s.Source.Fetch(ctx, s.FeedURL)
	if err != nil {
		return nil, nil, reconcile.Plan{}, fmt.Errorf("feed fetch: %w", err)
	}

	eligible := s.Filter.Eligible(snapshot)
	slog.Debug("Filtered feed snapshot", "total", len(snapshot), "eligible", len(eligible))

	rec, err := s.Store.Load()
	if err != nil {
		// Unreadable state resets the bot rather than blocking it; the
		// first-run cap keeps the fallout to a single post.
		slog.Warn("Failed to load state, treating as first run", "error", err)
		rec = nil
	}

	canon := state.Normalize(rec, eligible)
	plan := reconcile.Compute(eligible, canon, s.Options)

	return eligible, canon, plan, nil
}

func (s *Syndicator) fetchImage(ctx context.Context, item feed.Item) *opengraph.PreviewImage {
	if s.Media == nil {
		return nil
	}
	return s.Media.FetchPreviewImage(ctx, item.Link)
}
