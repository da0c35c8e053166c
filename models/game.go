// Package models defines data structures for the scraper.
package models

import "time"

// Game represents one extracted catalog entry.
type Game struct {
	ID              string            `csv:"id" json:"id"`
	Name            string            `csv:"name" json:"name"`
	Description     string            `csv:"description" json:"description"`
	CoverImage      string            `csv:"cover_image" json:"cover_image"`
	Screenshots     []string          `csv:"screenshots" json:"screenshots"`
	YoutubeGameplay string            `csv:"youtube_gameplay" json:"youtube_gameplay"`
	DownloadLinks   map[string]string `csv:"download_links" json:"download_links"`
	AdditionalInfo  map[string]string `csv:"additional_info" json:"additional_info"`
	SourceURL       string            `csv:"scraped_url" json:"scraped_url"`
	ScrapedAt       time.Time         `csv:"scraped_at" json:"scraped_at"`
}
