package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-games/models"
)

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Timestamp:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		TotalGames:     2,
		ScraperVersion: "1.0.0",
		TestMode:       true,
		Statistics: models.Statistics{
			GamesProcessed:     2,
			GamesWithCover:     1,
			Errors:             1,
			ElapsedTimeSeconds: 12.5,
			GamesPerMinute:     9.6,
		},
		Games: []*models.Game{
			{
				ID:              "a1b2c3d4e5f60718",
				Name:            "Alpha",
				Description:     "First game.",
				CoverImage:      "https://example.test/img/alpha-cover.jpg",
				Screenshots:     []string{"https://example.test/img/alpha-shot.jpg"},
				YoutubeGameplay: "https://www.youtube.com/results?search_query=Alpha+gameplay",
				DownloadLinks:   map[string]string{"gofile": "https://gofile.io/d/alpha"},
				AdditionalInfo:  map[string]string{"genre": "Puzzle", "size": "2 GB"},
				SourceURL:       "https://example.test/games/alpha-free-download/",
				ScrapedAt:       time.Date(2025, 6, 1, 11, 58, 0, 0, time.UTC),
			},
			{
				ID:             "0123456789abcdef",
				Name:           "Beta",
				Screenshots:    []string{},
				DownloadLinks:  map[string]string{},
				AdditionalInfo: map[string]string{},
				SourceURL:      "https://example.test/games/beta-free-download/",
				ScrapedAt:      time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC),
			},
		},
	}
}

func TestJSONWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "snapshot.json")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("new json writer: %v", err)
	}
	if err := writer.Write(sampleSnapshot()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	var decoded models.Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.TotalGames != 2 || decoded.ScraperVersion != "1.0.0" || !decoded.TestMode {
		t.Fatalf("decoded header = %+v", decoded)
	}
	if len(decoded.Games) != 2 || decoded.Games[0].Name != "Alpha" {
		t.Fatalf("decoded games = %+v", decoded.Games)
	}
	if decoded.Statistics.Errors != 1 {
		t.Fatalf("decoded statistics = %+v", decoded.Statistics)
	}

	// URLs must survive encoding unescaped.
	if !strings.Contains(string(raw), "search_query=Alpha+gameplay") {
		t.Fatalf("expected unescaped URL in output")
	}
}

func TestJSONWriterFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("new json writer: %v", err)
	}
	if err := writer.Write(sampleSnapshot()); err != nil {
		t.Fatalf("write: %v", err)
	}
	writer.Close()

	raw, _ := os.ReadFile(path)
	for _, field := range []string{
		`"timestamp"`, `"total_games"`, `"scraper_version"`, `"test_mode"`,
		`"statistics"`, `"games"`, `"cover_image"`, `"download_links"`,
		`"additional_info"`, `"scraped_url"`, `"scraped_at"`,
		`"games_processed"`, `"elapsed_time_seconds"`,
	} {
		if !strings.Contains(string(raw), field) {
			t.Errorf("output missing field %s", field)
		}
	}
}

func TestCSVWriterRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("new csv writer: %v", err)
	}
	if err := writer.Write(sampleSnapshot()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 games", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "name" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][1] != "Alpha" {
		t.Fatalf("first game row = %v", rows[1])
	}
	// Map columns are rendered in sorted key order.
	if rows[1][7] != "genre=Puzzle;size=2 GB" {
		t.Fatalf("additional_info column = %q", rows[1][7])
	}
}

func TestDualWriterWritesBoth(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "snapshot.json")
	csvPath := filepath.Join(dir, "snapshot.csv")

	writer, err := NewDualWriter(jsonPath, csvPath)
	if err != nil {
		t.Fatalf("new dual writer: %v", err)
	}
	if err := writer.Write(sampleSnapshot()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, path := range []string{jsonPath, csvPath} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", path)
		}
	}
}
