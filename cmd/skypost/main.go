// Package main provides the CLI entry point for skypost.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/joho/godotenv"

	"github.com/lepinkainen/skypost/internal/bluesky"
	"github.com/lepinkainen/skypost/internal/config"
	"github.com/lepinkainen/skypost/internal/reconcile"
	"github.com/lepinkainen/skypost/internal/syndicate"
	"github.com/lepinkainen/skypost/pkg/api"
	"github.com/lepinkainen/skypost/pkg/feed"
	"github.com/lepinkainen/skypost/pkg/opengraph"
	"github.com/lepinkainen/skypost/pkg/preview"
	"github.com/lepinkainen/skypost/pkg/state"
)

// appPasswordEnv is the only place the Bluesky app password is read from.
// It never appears in config files.
const appPasswordEnv = "SKYPOST_APP_PASSWORD"

// CLI structure
var CLI struct {
	Config string `help:"Configuration file path" default:"config.yaml"`
	Debug  bool   `help:"Enable debug logging" default:"false"`

	Run struct {
		NoImages bool `help:"Skip preview image fetching" default:"false"`
	} `cmd:"run" help:"Fetch the feed and publish new entries."`

	Preview struct {
		Index int `help:"Output record JSON for specific entry index (0-based) to stdout" default:"-1"`
	} `cmd:"preview" help:"Preview the publish plan without posting."`
}

func main() {
	// Parse CLI with Kong YAML configuration file loading
	ctx := kong.Parse(&CLI,
		kong.Configuration(kongyaml.Loader, "config.yaml", "~/.skypost/config.yaml"),
	)

	// Configure logging level based on debug flag
	if CLI.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}

	// .env is optional, deployments usually set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	switch ctx.Command() {
	case "run":
		runSyndication(cfg)

	case "preview":
		previewPlan(cfg, CLI.Preview.Index)

	default:
		panic(ctx.Command())
	}
}

// runSyndication executes one publish pass. Exit code 1 is reserved for
// conditions a scheduler must surface (bad credentials, broken config); an
// unreachable feed is logged and exits clean so transient outages do not page.
func runSyndication(cfg *config.Config) {
	password := os.Getenv(appPasswordEnv)
	if password == "" {
		slog.Error("App password not set", "env", appPasswordEnv)
		os.Exit(1)
	}

	ctx := context.Background()

	client := bluesky.NewClient(cfg.Bluesky.Host, cfg.Bluesky.Timeout)
	if err := client.CreateSession(ctx, cfg.Bluesky.Identifier, password); err != nil {
		slog.Error("Authentication failed", "identifier", cfg.Bluesky.Identifier, "error", err)
		os.Exit(1)
	}

	s := newSyndicator(cfg)
	s.Pub = client
	s.Limiter = api.NewSimpleRateLimiter(cfg.Limits.PostDelay)

	if !CLI.Run.NoImages {
		db, err := opengraph.NewDatabase(cfg.OpenGraph.CachePath)
		if err != nil {
			slog.Warn("OpenGraph cache unavailable, posting without images", "error", err)
		} else {
			defer db.Close()
			s.Media = opengraph.NewFetcher(db, cfg.OpenGraph.Timeout)
		}
	}

	summary, err := s.Run(ctx)
	if err != nil {
		if errors.Is(err, feed.ErrFeedUnavailable) {
			slog.Warn("Feed unavailable, skipping this run", "url", cfg.Feed.URL, "error", err)
			return
		}
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Run complete",
		"eligible", summary.Eligible,
		"planned", summary.Planned,
		"seeded", summary.Seeded,
		"published", summary.Published,
		"failed", summary.Failed,
	)
}

// previewPlan shows what a run would publish, without touching state or the
// network beyond the feed fetch.
func previewPlan(cfg *config.Config, index int) {
	s := newSyndicator(cfg)

	items, err := s.Plan(context.Background())
	if err != nil {
		slog.Error("Failed to compute plan", "error", err)
		os.Exit(1)
	}

	entries := make([]preview.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, preview.Entry{
			Item: item,
			Post: bluesky.BuildPost(item, cfg.Bluesky.Language, nil),
		})
	}

	// If index is specified, output the record JSON directly to stdout
	if index >= 0 {
		if index >= len(entries) {
			slog.Error("Index out of range", "index", index, "total", len(entries))
			os.Exit(1)
		}
		fmt.Println(preview.FormatRecordItem(entries[index]))
		return
	}

	if err := preview.Run(entries, cfg.Feed.URL); err != nil {
		slog.Error("Preview failed", "error", err)
		os.Exit(1)
	}
}

// newSyndicator wires the pieces every command needs.
func newSyndicator(cfg *config.Config) *syndicate.Syndicator {
	filter := feed.NewFilter(cfg.Feed.Denylist...)
	feed.LoadSharedDenylist(filter, cfg.Feed.DenylistURL, "denylist.json")

	return &syndicate.Syndicator{
		FeedURL:  cfg.Feed.URL,
		Language: cfg.Bluesky.Language,
		Source:   feed.NewFetcher(cfg.Feed.Timeout),
		Store:    state.NewStore(cfg.State.Path),
		Filter:   filter,
		Options: reconcile.Options{
			FirstRunThreshold: cfg.Limits.FirstRunThreshold,
			CatchUpCap:        cfg.Limits.CatchUpCap,
		},
		Limiter: api.NewNoOpRateLimiter(),
	}
}
