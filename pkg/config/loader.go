// Package config loads shared JSON configuration from a remote URL with a
// local file fallback.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	httputil "github.com/lepinkainen/skypost/pkg/http"
)

// LoaderConfig represents configuration loading options
type LoaderConfig struct {
	RemoteURL         string
	LocalPath         string
	Timeout           time.Duration
	FallbackToDefault bool
}

// DefaultLoaderConfig returns default loader configuration
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		Timeout:           10 * time.Second,
		FallbackToDefault: true,
	}
}

// LoadFromURLWithFallback loads configuration from URL with local fallback.
// Returns true when something was loaded into target.
func LoadFromURLWithFallback(config *LoaderConfig, target any) (bool, error) {
	// Try remote URL first if provided
	if config.RemoteURL != "" {
		if err := loadFromURL(config.RemoteURL, config.Timeout, target); err == nil {
			return true, nil
		}
	}

	// Try local file if remote failed
	if config.LocalPath != "" {
		if err := loadFromFile(config.LocalPath, target); err == nil {
			return true, nil
		}
	}

	if !config.FallbackToDefault {
		return false, fmt.Errorf("failed to load configuration from URL and local file")
	}

	return false, nil
}

// loadFromURL loads configuration from a remote URL using shared HTTP utilities
func loadFromURL(url string, timeout time.Duration, target any) error {
	httpConfig := httputil.DefaultConfig()
	if timeout > 0 {
		httpConfig.Timeout = timeout
	}

	client := httputil.NewClient(httpConfig)
	resp, err := client.GetWithContext(context.Background(), url)
	if err != nil {
		return fmt.Errorf("failed to fetch config from URL: %w", err)
	}

	if err := httputil.DecodeJSONResponse(resp, target); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}

	return nil
}

// loadFromFile loads configuration from a local JSON file
func loadFromFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	return nil
}
