// Package config holds scraper configuration.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Link matching policies for discovery. Tight trades recall for precision.
const (
	LinkPatternTight = "tight"
	LinkPatternLoose = "loose"
)

// Fetch strategies.
const (
	FetchHTTP    = "http"
	FetchBrowser = "browser"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL string

	RequestDelay    time.Duration
	ItemDelay       time.Duration
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	UserAgent       string

	OutputDir      string
	OutputFilename string // may contain a {timestamp} placeholder
	OutputFormat   string // json, csv, or dual

	MaxGames           int // 0 = unlimited
	IncludeScreenshots bool
	IncludeYoutube     bool
	LinkPattern        string // tight or loose
	FetchStrategy      string // http or browser
	DedupeMaxSize      int

	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns the defaults for the catalog target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            "https://steamrip.com/games-list-page/",
		RequestDelay:       2 * time.Second,
		ItemDelay:          2 * time.Second,
		Timeout:            30 * time.Second,
		MaxRetries:         3,
		RetryBackoff:       1 * time.Second,
		RetryBackoffMax:    30 * time.Second,
		UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		OutputDir:          "output",
		OutputFilename:     "games_{timestamp}.json",
		OutputFormat:       "json",
		MaxGames:           0,
		IncludeScreenshots: true,
		IncludeYoutube:     true,
		LinkPattern:        LinkPatternTight,
		FetchStrategy:      FetchHTTP,
		DedupeMaxSize:      10000,
		MetricsAddr:        "",
		Verbose:            false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.RequestDelay < 0 {
		return fmt.Errorf("request delay cannot be negative")
	}
	if c.ItemDelay < 0 {
		return fmt.Errorf("item delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.MaxGames < 0 {
		return fmt.Errorf("max games cannot be negative")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.OutputFilename == "" {
		return fmt.Errorf("output filename cannot be empty")
	}
	if c.OutputFormat != "json" && c.OutputFormat != "csv" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be json, csv, or dual")
	}
	if c.LinkPattern != LinkPatternTight && c.LinkPattern != LinkPatternLoose {
		return fmt.Errorf("link pattern must be %s or %s", LinkPatternTight, LinkPatternLoose)
	}
	if c.FetchStrategy != FetchHTTP && c.FetchStrategy != FetchBrowser {
		return fmt.Errorf("fetch strategy must be %s or %s", FetchHTTP, FetchBrowser)
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

// OutputPath renders the output filename template under the output directory.
// A {timestamp} placeholder is replaced with now formatted as 20060102_150405.
func (c *Config) OutputPath(now time.Time) string {
	name := strings.ReplaceAll(c.OutputFilename, "{timestamp}", now.Format("20060102_150405"))
	return filepath.Join(c.OutputDir, name)
}
