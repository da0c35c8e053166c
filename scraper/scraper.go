// Package scraper coordinates a full run: discover detail pages from the
// catalog listing, extract a record per page, and assemble the terminal
// snapshot with run statistics.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-games/config"
	"github.com/aluiziolira/go-scrape-games/models"
	"github.com/aluiziolira/go-scrape-games/parser"
)

// Version is reported in every snapshot.
const Version = "1.0.0"

// Fetcher retrieves one document per call. Both the HTTP client and the
// headless-browser fetcher satisfy it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Warmup(ctx context.Context)
	Close() error
}

// Scraper runs the discover/extract loop for one snapshot.
type Scraper struct {
	cfg        *config.Config
	fetcher    Fetcher
	discoverer *parser.Discoverer
	stats      *stats
	Metrics    *Metrics
}

// NewScraper builds a scraper around cfg and the given fetch strategy.
func NewScraper(cfg *config.Config, f Fetcher) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	discoverer, err := parser.NewDiscoverer(cfg.LinkPattern, cfg.DedupeMaxSize)
	if err != nil {
		return nil, fmt.Errorf("build discoverer: %w", err)
	}

	return &Scraper{
		cfg:        cfg,
		fetcher:    f,
		discoverer: discoverer,
		stats:      &stats{},
		Metrics:    NewMetrics(),
	}, nil
}

// Run executes one full scrape. A discovery failure is fatal; per-game
// failures are logged, counted and skipped. Cancelling ctx abandons the
// remaining items but still returns a valid partial snapshot.
func (s *Scraper) Run(ctx context.Context) (*models.Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	s.fetcher.Warmup(ctx)

	links, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}

	testMode := s.cfg.MaxGames > 0
	if testMode && len(links) > s.cfg.MaxGames {
		links = links[:s.cfg.MaxGames]
		slog.Info("limiting run", slog.Int("max_games", s.cfg.MaxGames))
	}

	games := make([]*models.Game, 0, len(links))
	for i, link := range links {
		if ctx.Err() != nil {
			slog.Warn("run cancelled, emitting partial snapshot",
				slog.Int("collected", len(games)),
				slog.Int("remaining", len(links)-i),
			)
			break
		}

		slog.Info("processing game",
			slog.Int("index", i+1),
			slog.Int("total", len(links)),
			slog.String("url", link),
		)

		game, err := s.processGame(ctx, link)
		if err != nil {
			s.stats.addError()
			slog.Error("game extraction failed", slog.String("url", link), slog.Any("error", err))
		} else {
			games = append(games, game)
			s.stats.record(game)
			s.Metrics.IncGames()
			slog.Debug("game extracted", slog.String("name", game.Name), slog.String("id", game.ID))
		}

		if i < len(links)-1 {
			if err := sleepCtx(ctx, s.cfg.ItemDelay); err != nil {
				continue
			}
		}
	}

	return &models.Snapshot{
		Timestamp:      time.Now(),
		TotalGames:     len(games),
		ScraperVersion: Version,
		TestMode:       testMode,
		Statistics:     s.stats.finalize(time.Since(start)),
		Games:          games,
	}, nil
}

func (s *Scraper) discover(ctx context.Context) ([]string, error) {
	slog.Info("discovering game links", slog.String("base_url", s.cfg.BaseURL))

	body, err := s.fetcher.Fetch(ctx, s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	links := s.discoverer.Discover(doc, s.cfg.BaseURL)
	slog.Info("discovered game links", slog.Int("count", len(links)))
	return links, nil
}

// processGame fetches and extracts one detail page. Fetch and parse failures
// surface as *parser.ExtractionError so the caller treats them uniformly.
func (s *Scraper) processGame(ctx context.Context, link string) (*models.Game, error) {
	body, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, &parser.ExtractionError{URL: link, Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &parser.ExtractionError{URL: link, Err: err}
	}

	return parser.Extract(doc, link, parser.Options{
		IncludeScreenshots: s.cfg.IncludeScreenshots,
		IncludeYoutube:     s.cfg.IncludeYoutube,
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
