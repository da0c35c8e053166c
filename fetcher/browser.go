package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/aluiziolira/go-scrape-games/config"
)

// settleDelay gives client-side scripts time to render after the document
// body is ready.
const settleDelay = 2 * time.Second

// Browser fetches documents by rendering them in a headless browser. It is
// the alternate strategy for targets that assemble pages with JavaScript;
// retry and pacing semantics match the HTTP client. Requires a local
// Chrome/Chromium install.
type Browser struct {
	cfg   *config.Config
	retry retryPolicy
	obs   Observer
	root  string

	allocCtx    context.Context
	allocCancel context.CancelFunc

	warmupOnce sync.Once

	mu        sync.Mutex
	lastFetch time.Time
}

// NewBrowser builds a headless-browser fetcher configured from cfg.
func NewBrowser(cfg *config.Config, obs Observer) (*Browser, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(cfg.UserAgent),
		)...,
	)

	return &Browser{
		cfg:         cfg,
		retry:       newRetryPolicy(cfg),
		obs:         obs,
		root:        (&url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: "/"}).String(),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Warmup loads the site root once so the browser session carries its cookies
// into the real fetches. Failures are swallowed.
func (b *Browser) Warmup(ctx context.Context) {
	b.warmupOnce.Do(func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := b.render(ctx, b.root); err != nil {
			slog.Debug("warmup render failed", slog.String("url", b.root), slog.Any("error", err))
		}
	})
}

// Fetch renders one document, retrying with the shared backoff policy and
// keeping the configured politeness delay between renders.
func (b *Browser) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < b.retry.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{URL: rawURL, Err: err}
		}
		if attempt > 0 {
			if b.obs != nil {
				b.obs.IncRetries()
			}
			if err := sleepCtx(ctx, b.retry.backoff(attempt)); err != nil {
				return nil, &FetchError{URL: rawURL, Err: err}
			}
		}
		if err := b.pace(ctx); err != nil {
			return nil, &FetchError{URL: rawURL, Err: err}
		}

		if b.obs != nil {
			b.obs.IncRequest("render")
		}
		start := time.Now()
		body, err := b.render(ctx, rawURL)
		if b.obs != nil {
			b.obs.ObserveDuration(time.Since(start))
		}
		b.lastFetch = time.Now()

		if err == nil {
			return body, nil
		}

		lastErr = classifyError(err, 0)
		if b.obs != nil {
			b.obs.IncError(errorTypeLabel(lastErr))
		}
		slog.Warn("render attempt failed",
			slog.String("url", rawURL),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", b.retry.maxAttempts),
			slog.Any("error", lastErr),
		)
	}

	return nil, &FetchError{URL: rawURL, Err: lastErr}
}

// pace enforces the inter-request delay between renders. The browser has no
// collector limit rule, so the gap is kept manually.
func (b *Browser) pace(ctx context.Context) error {
	if b.lastFetch.IsZero() {
		return ctx.Err()
	}
	wait := b.cfg.RequestDelay - time.Since(b.lastFetch)
	return sleepCtx(ctx, wait)
}

func (b *Browser) render(ctx context.Context, rawURL string) ([]byte, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.cfg.Timeout)
	defer cancelTimeout()

	// Abort the render if the run context ends first.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var rendered string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &rendered),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", rawURL, err)
	}
	return []byte(rendered), nil
}

// Close tears down the browser allocator and any remaining tabs.
func (b *Browser) Close() error {
	b.allocCancel()
	return nil
}
