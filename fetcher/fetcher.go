// Package fetcher retrieves documents over HTTP with retries, backoff and
// request pacing. A headless-browser strategy lives in browser.go for
// deployments where the target renders content client-side.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-scrape-games/config"
)

// Observer receives fetch-level events. *scraper.Metrics satisfies it; a nil
// observer disables reporting.
type Observer interface {
	IncRequest(phase string)
	ObserveDuration(d time.Duration)
	IncRetries()
	IncError(category string)
}

// Client fetches documents with a colly collector. Fetches are serialized:
// the collector's limit rule enforces the politeness delay between requests,
// and the retry policy governs backoff after failures.
type Client struct {
	cfg   *config.Config
	retry retryPolicy
	obs   Observer
	root  string

	collector *colly.Collector

	warmupOnce sync.Once

	mu         sync.Mutex
	lastBody   []byte
	lastStatus int
}

// New builds an HTTP fetcher configured from cfg.
func New(cfg *config.Config, obs Observer) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.RequestDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	root := (&url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: "/"}).String()

	c := &Client{
		cfg:       cfg,
		retry:     newRetryPolicy(cfg),
		obs:       obs,
		root:      root,
		collector: collector,
	}
	c.configureHandlers()
	return c, nil
}

func (c *Client) configureHandlers() {
	c.collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
		r.Headers.Set("Referer", c.root)
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
		r.Headers.Set("Cache-Control", "no-cache")
	})

	c.collector.OnResponse(func(r *colly.Response) {
		body := make([]byte, len(r.Body))
		copy(body, r.Body)
		c.lastBody = body
		c.lastStatus = r.StatusCode
	})

	c.collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			c.lastStatus = r.StatusCode
		}
	})
}

// Warmup issues a best-effort request to the site root before the first real
// fetch. Some deployments hand out session cookies or run bot challenges on
// the landing page; failures here are swallowed, never retried.
func (c *Client) Warmup(ctx context.Context) {
	c.warmupOnce.Do(func() {
		if ctx.Err() != nil {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := c.collector.Visit(c.root); err != nil {
			slog.Debug("warmup request failed", slog.String("url", c.root), slog.Any("error", err))
		}
		c.lastBody = nil
	})
}

// Fetch retrieves one document, retrying with exponential backoff on
// transport failures and non-success statuses. After the attempt budget is
// exhausted it fails with a *FetchError wrapping the classified cause.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < c.retry.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{URL: rawURL, Err: err}
		}
		if attempt > 0 {
			if c.obs != nil {
				c.obs.IncRetries()
			}
			if err := sleepCtx(ctx, c.retry.backoff(attempt)); err != nil {
				return nil, &FetchError{URL: rawURL, Err: err}
			}
		}

		c.lastBody = nil
		c.lastStatus = 0
		if c.obs != nil {
			c.obs.IncRequest("fetch")
		}
		start := time.Now()
		err := c.collector.Visit(rawURL)
		if c.obs != nil {
			c.obs.ObserveDuration(time.Since(start))
		}

		if err == nil && c.lastBody != nil {
			body := c.lastBody
			c.lastBody = nil
			return body, nil
		}
		if err == nil {
			err = fmt.Errorf("empty response")
		}

		lastErr = classifyError(err, c.lastStatus)
		if c.obs != nil {
			c.obs.IncError(errorTypeLabel(lastErr))
		}
		slog.Warn("fetch attempt failed",
			slog.String("url", rawURL),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", c.retry.maxAttempts),
			slog.Any("error", lastErr),
		)
	}

	return nil, &FetchError{URL: rawURL, Err: lastErr}
}

// Close releases fetcher resources. The HTTP client holds none beyond idle
// connections, which the transport manages itself.
func (c *Client) Close() error { return nil }
