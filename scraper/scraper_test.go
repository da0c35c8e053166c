package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-games/config"
	"github.com/aluiziolira/go-scrape-games/fetcher"
	"github.com/aluiziolira/go-scrape-games/models"
)

const testBaseURL = "https://example.test/games-list-page/"

// fakeFetcher serves canned pages and scripted failures.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fails map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if err, ok := f.fails[url]; ok {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, &fetcher.FetchError{URL: url, Err: errors.New("no such page")}
	}
	return []byte(body), nil
}

func (f *fakeFetcher) Warmup(context.Context) {}

func (f *fakeFetcher) Close() error { return nil }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = testBaseURL
	cfg.RequestDelay = 0
	cfg.ItemDelay = 0
	return cfg
}

func listingWithGames(slugs ...string) string {
	page := "<html><body>"
	for _, slug := range slugs {
		page += fmt.Sprintf(`<a href="/games/%s-free-download/">%s</a>`, slug, slug)
	}
	page += `<a href="/about/">About</a><a href="/category/action/">Action</a>`
	page += "</body></html>"
	return page
}

func gameURL(slug string) string {
	return fmt.Sprintf("https://example.test/games/%s-free-download/", slug)
}

func gamePage(slug string) string {
	return fmt.Sprintf(`<html><body>
<h1>%s Free Download</h1>
<div class="entry-content">Description of %s.</div>
<img src="/img/%s-cover.jpg">
<a href="https://gofile.io/d/%s">DOWNLOAD HERE</a>
</body></html>`, slug, slug, slug, slug)
}

func newTestScraper(t *testing.T, cfg *config.Config, f Fetcher) *Scraper {
	t.Helper()
	s, err := NewScraper(cfg, f)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	return s
}

func TestRunFullScrape(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		testBaseURL:      listingWithGames("alpha", "beta", "gamma"),
		gameURL("alpha"): gamePage("alpha"),
		gameURL("beta"):  gamePage("beta"),
		gameURL("gamma"): gamePage("gamma"),
	}}

	s := newTestScraper(t, testConfig(), f)
	snapshot, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if snapshot.TotalGames != 3 {
		t.Fatalf("total games = %d, want 3", snapshot.TotalGames)
	}
	if snapshot.Statistics.Errors != 0 {
		t.Fatalf("errors = %d, want 0", snapshot.Statistics.Errors)
	}
	if snapshot.Statistics.GamesProcessed != 3 {
		t.Fatalf("games processed = %d, want 3", snapshot.Statistics.GamesProcessed)
	}
	if snapshot.TestMode {
		t.Fatalf("test mode should be off without a games limit")
	}
	if snapshot.ScraperVersion != Version {
		t.Fatalf("version = %q", snapshot.ScraperVersion)
	}

	// Records keep discovery order.
	for i, slug := range []string{"alpha", "beta", "gamma"} {
		if snapshot.Games[i].SourceURL != gameURL(slug) {
			t.Fatalf("games[%d] source = %q, want %q", i, snapshot.Games[i].SourceURL, gameURL(slug))
		}
	}

	sample := snapshot.Games[0]
	if sample.Name != "alpha" {
		t.Fatalf("name = %q, want alpha", sample.Name)
	}
	if sample.CoverImage != "https://example.test/img/alpha-cover.jpg" {
		t.Fatalf("cover = %q", sample.CoverImage)
	}
	if got := sample.DownloadLinks["gofile"]; got != "https://gofile.io/d/alpha" {
		t.Fatalf("gofile link = %q", got)
	}
}

func TestRunSingleItemFailureDoesNotAbort(t *testing.T) {
	f := &fakeFetcher{
		pages: map[string]string{
			testBaseURL:      listingWithGames("alpha", "beta", "gamma"),
			gameURL("alpha"): gamePage("alpha"),
			gameURL("gamma"): gamePage("gamma"),
		},
		fails: map[string]error{
			gameURL("beta"): &fetcher.FetchError{URL: gameURL("beta"), Err: errors.New("connection reset")},
		},
	}

	s := newTestScraper(t, testConfig(), f)
	snapshot, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run should survive a single item failure: %v", err)
	}

	if snapshot.TotalGames != 2 {
		t.Fatalf("total games = %d, want 2", snapshot.TotalGames)
	}
	if snapshot.Statistics.Errors != 1 {
		t.Fatalf("errors = %d, want 1", snapshot.Statistics.Errors)
	}
	if snapshot.Statistics.GamesProcessed != 2 {
		t.Fatalf("games processed = %d, want 2", snapshot.Statistics.GamesProcessed)
	}
}

func TestRunDiscoveryFailureIsFatal(t *testing.T) {
	f := &fakeFetcher{
		pages: map[string]string{},
		fails: map[string]error{
			testBaseURL: &fetcher.FetchError{URL: testBaseURL, Err: errors.New("unreachable")},
		},
	}

	s := newTestScraper(t, testConfig(), f)
	snapshot, err := s.Run(context.Background())
	if err == nil {
		t.Fatalf("expected fatal error when discovery fails")
	}
	if snapshot != nil {
		t.Fatalf("no snapshot expected on discovery failure")
	}
}

func TestRunMaxGamesLimit(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		testBaseURL:      listingWithGames("alpha", "beta", "gamma"),
		gameURL("alpha"): gamePage("alpha"),
		gameURL("beta"):  gamePage("beta"),
		gameURL("gamma"): gamePage("gamma"),
	}}

	cfg := testConfig()
	cfg.MaxGames = 2
	s := newTestScraper(t, cfg, f)

	snapshot, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snapshot.TotalGames != 2 {
		t.Fatalf("total games = %d, want 2", snapshot.TotalGames)
	}
	if !snapshot.TestMode {
		t.Fatalf("test mode should be on when a games limit is set")
	}
	// gamma must never have been fetched.
	for _, call := range f.calls {
		if call == gameURL("gamma") {
			t.Fatalf("url beyond the limit was fetched: %s", call)
		}
	}
}

func TestRunCancelledEmitsPartialSnapshot(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		testBaseURL:      listingWithGames("alpha", "beta"),
		gameURL("alpha"): gamePage("alpha"),
		gameURL("beta"):  gamePage("beta"),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScraper(t, testConfig(), f)
	snapshot, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("cancelled run should still emit a snapshot: %v", err)
	}
	if snapshot.TotalGames != 0 {
		t.Fatalf("total games = %d, want 0 after pre-run cancellation", snapshot.TotalGames)
	}
}

func TestStatsFinalize(t *testing.T) {
	st := &stats{}
	st.record(&models.Game{
		CoverImage:    "https://example.test/cover.jpg",
		Screenshots:   []string{"https://example.test/shot.jpg"},
		DownloadLinks: map[string]string{"gofile": "https://gofile.io/d/x"},
	})
	st.record(&models.Game{})
	st.addError()

	summary := st.finalize(time.Minute)

	if summary.GamesProcessed != 2 {
		t.Fatalf("processed = %d, want 2", summary.GamesProcessed)
	}
	if summary.GamesWithCover != 1 || summary.GamesWithScreenshots != 1 || summary.GamesWithDownloads != 1 {
		t.Fatalf("field counters = %+v", summary)
	}
	if summary.Errors != 1 {
		t.Fatalf("errors = %d, want 1", summary.Errors)
	}
	if summary.ElapsedTimeSeconds != 60 {
		t.Fatalf("elapsed = %v, want 60", summary.ElapsedTimeSeconds)
	}
	if summary.GamesPerMinute != 2 {
		t.Fatalf("games per minute = %v, want 2", summary.GamesPerMinute)
	}
}
