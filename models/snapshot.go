package models

import "time"

// Statistics is the finalized, read-only summary of one run.
type Statistics struct {
	GamesProcessed          int     `json:"games_processed"`
	GamesWithCover          int     `json:"games_with_cover"`
	GamesWithScreenshots    int     `json:"games_with_screenshots"`
	GamesWithDownloads      int     `json:"games_with_downloads"`
	GamesWithYoutube        int     `json:"games_with_youtube"`
	GamesWithAdditionalInfo int     `json:"games_with_additional_info"`
	Errors                  int     `json:"errors"`
	ElapsedTimeSeconds      float64 `json:"elapsed_time_seconds"`
	GamesPerMinute          float64 `json:"games_per_minute"`
}

// Snapshot is the terminal output artifact of one run. It is assembled once
// at run end and never mutated; a run interrupted mid-way still produces a
// valid snapshot from the records collected so far.
type Snapshot struct {
	Timestamp      time.Time  `json:"timestamp"`
	TotalGames     int        `json:"total_games"`
	ScraperVersion string     `json:"scraper_version"`
	TestMode       bool       `json:"test_mode"`
	Statistics     Statistics `json:"statistics"`
	Games          []*Game    `json:"games"`
}
