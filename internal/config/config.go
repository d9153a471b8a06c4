package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lepinkainen/skypost/pkg/filesystem"
	"github.com/spf13/viper"
)

// Config holds the central application configuration
type Config struct {
	// Feed source configuration
	Feed struct {
		URL         string        `mapstructure:"url"`          // RSS/Atom feed URL
		Timeout     time.Duration `mapstructure:"timeout"`      // Fetch timeout
		Denylist    []string      `mapstructure:"denylist"`     // Extra title markers to skip
		DenylistURL string        `mapstructure:"denylist_url"` // Optional shared denylist (JSON array)
	} `mapstructure:"feed"`

	// Bluesky publisher configuration
	Bluesky struct {
		Host       string        `mapstructure:"host"`       // PDS endpoint
		Identifier string        `mapstructure:"identifier"` // Handle or email
		Language   string        `mapstructure:"language"`   // Post language tag
		Timeout    time.Duration `mapstructure:"timeout"`    // Per-call timeout
	} `mapstructure:"bluesky"`

	// Dedupe state configuration
	State struct {
		Path string `mapstructure:"path"` // State file path
	} `mapstructure:"state"`

	// OpenGraph scrape configuration
	OpenGraph struct {
		CachePath string        `mapstructure:"cache_path"` // SQLite cache path
		Timeout   time.Duration `mapstructure:"timeout"`    // Per-scrape timeout
	} `mapstructure:"opengraph"`

	// Safety caps and pacing
	Limits struct {
		FirstRunThreshold int           `mapstructure:"first_run_threshold"` // Backlog size that triggers seeding
		CatchUpCap        int           `mapstructure:"catchup_cap"`         // Max posts after stale state
		PostDelay         time.Duration `mapstructure:"post_delay"`          // Pause between posts
	} `mapstructure:"limits"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	// If path is relative, try current directory first, then executable directory
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			if execPath, err := filesystem.GetDefaultPath(path); err == nil {
				if _, err := os.Stat(execPath); err == nil {
					path = execPath
				}
			}
			// If both fail, use original path and let Viper handle the error
		}
	}

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	// Set default values
	viper.SetDefault("feed.url", "")
	viper.SetDefault("feed.timeout", 30*time.Second)
	viper.SetDefault("feed.denylist", []string{})
	viper.SetDefault("feed.denylist_url", "")

	viper.SetDefault("bluesky.host", "https://bsky.social")
	viper.SetDefault("bluesky.identifier", "")
	viper.SetDefault("bluesky.language", "en")
	viper.SetDefault("bluesky.timeout", 42*time.Second)

	viper.SetDefault("state.path", "skypost.json")

	viper.SetDefault("opengraph.cache_path", "opengraph.db")
	viper.SetDefault("opengraph.timeout", 20*time.Second)

	viper.SetDefault("limits.first_run_threshold", 5)
	viper.SetDefault("limits.catchup_cap", 3)
	viper.SetDefault("limits.post_delay", 2*time.Second)

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// Validate checks the fields that have no usable default.
func (c *Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if c.Bluesky.Identifier == "" {
		return fmt.Errorf("bluesky.identifier is required")
	}
	return nil
}
