package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-scrape-games/config"
	"github.com/aluiziolira/go-scrape-games/fetcher"
	"github.com/aluiziolira/go-scrape-games/models"
	"github.com/aluiziolira/go-scrape-games/pipeline"
	"github.com/aluiziolira/go-scrape-games/scraper"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if err := cfg.FromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		os.Exit(1)
	}

	baseURL := flag.String("base-url", cfg.BaseURL, "Catalog listing page URL")
	requestDelayMs := flag.Int("delay", int(cfg.RequestDelay.Milliseconds()), "Delay between requests (milliseconds)")
	itemDelayMs := flag.Int("item-delay", int(cfg.ItemDelay.Milliseconds()), "Delay between items (milliseconds)")
	timeoutSec := flag.Int("timeout", int(cfg.Timeout.Seconds()), "Request timeout (seconds)")
	maxRetries := flag.Int("max-retries", cfg.MaxRetries, "Maximum fetch attempts per URL")
	maxGames := flag.Int("max-games", cfg.MaxGames, "Maximum games to process (0 = unlimited)")
	testMode := flag.Bool("test", false, "Test mode: limit the run to 20 games")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory")
	output := flag.String("output", "", "Output file path (overrides the templated filename)")
	format := flag.String("format", cfg.OutputFormat, "Output format: json, csv, or dual")
	linkPattern := flag.String("link-pattern", cfg.LinkPattern, "Link matching policy: tight or loose")
	strategy := flag.String("fetch-strategy", cfg.FetchStrategy, "Fetch strategy: http or browser")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", cfg.Verbose, "Enable verbose logging")

	flag.Parse()

	cfg.BaseURL = *baseURL
	cfg.RequestDelay = time.Duration(*requestDelayMs) * time.Millisecond
	cfg.ItemDelay = time.Duration(*itemDelayMs) * time.Millisecond
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.MaxRetries = *maxRetries
	cfg.MaxGames = *maxGames
	cfg.OutputDir = *outputDir
	cfg.OutputFormat = strings.ToLower(*format)
	cfg.LinkPattern = *linkPattern
	cfg.FetchStrategy = *strategy
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if *testMode && cfg.MaxGames == 0 {
		cfg.MaxGames = 20
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.String("strategy", cfg.FetchStrategy),
		slog.Int("max_games", cfg.MaxGames),
	)

	s, f, err := buildScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("close fetcher", slog.Any("error", err))
		}
	}()

	outputPath := *output
	if outputPath == "" {
		outputPath = cfg.OutputPath(time.Now())
	}
	writer, err := createWriter(cfg.OutputFormat, outputPath)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current item")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	snapshot, err := s.Run(ctx)
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err))
		writer.Close()
		os.Exit(1)
	}

	if err := writer.Write(snapshot); err != nil {
		slog.Error("writing snapshot failed", slog.Any("error", err))
		writer.Close()
		os.Exit(1)
	}
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		writer.Close()
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		slog.Error("close writer", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(snapshot, outputPath)
}

func buildScraper(cfg *config.Config) (*scraper.Scraper, scraper.Fetcher, error) {
	// One registry shared by the fetcher (as its observer) and the scraper.
	metrics := scraper.NewMetrics()

	var f scraper.Fetcher
	var err error
	switch cfg.FetchStrategy {
	case config.FetchBrowser:
		f, err = fetcher.NewBrowser(cfg, metrics)
	default:
		f, err = fetcher.New(cfg, metrics)
	}
	if err != nil {
		return nil, nil, err
	}

	s, err := scraper.NewScraper(cfg, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	s.Metrics = metrics
	return s, f, nil
}

func createWriter(format, filename string) (pipeline.SnapshotWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		csvFilename := strings.TrimSuffix(filename, ".json") + ".csv"
		return pipeline.NewDualWriter(filename, csvFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(snapshot *models.Snapshot, outputPath string) {
	stats := snapshot.Statistics
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Games processed:  %d\n", stats.GamesProcessed)
	fmt.Printf("  With cover:       %d\n", stats.GamesWithCover)
	fmt.Printf("  With screenshots: %d\n", stats.GamesWithScreenshots)
	fmt.Printf("  With downloads:   %d\n", stats.GamesWithDownloads)
	fmt.Printf("  With extra info:  %d\n", stats.GamesWithAdditionalInfo)
	fmt.Printf("  Errors:           %d\n", stats.Errors)
	fmt.Printf("  Duration:         %.2fs\n", stats.ElapsedTimeSeconds)
	fmt.Printf("  Games/min:        %.2f\n", stats.GamesPerMinute)
	fmt.Printf("  Output file:      %s\n", outputPath)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
