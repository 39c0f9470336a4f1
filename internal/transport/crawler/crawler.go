// Package crawler fetches a fixed list of pages and extracts their visible text.
// It never follows links.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/supportrag/internal/domain/webpage"
	"github.com/kailas-cloud/supportrag/internal/metrics"
)

// Defaults match what the support site needs: headings, paragraphs, list items and divs.
const (
	DefaultSelector    = "h1, h2, h3, p, li, div"
	DefaultMinTextLen  = 20
	DefaultTimeout     = 10 * time.Second
	DefaultConcurrency = 4
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes = 5 << 20
)

// Config for the crawler. Zero values take the defaults.
type Config struct {
	Timeout     time.Duration
	UserAgent   string
	Selector    string
	MinTextLen  int
	Concurrency int
}

// Crawler fetches pages over HTTP.
type Crawler struct {
	client *http.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a crawler. A nil client uses a fresh http.Client.
func New(cfg Config, client *http.Client, logger *zap.Logger) *Crawler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Selector == "" {
		cfg.Selector = DefaultSelector
	}
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = DefaultMinTextLen
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Crawler{client: client, cfg: cfg, logger: logger}
}

// Fetch returns the pages of urls that were fetched successfully, in input
// order. Failed pages are logged and skipped; only ctx cancellation is an error.
func (c *Crawler) Fetch(ctx context.Context, urls []string) ([]webpage.Page, error) {
	pages := make([]*webpage.Page, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			text, err := c.fetchOne(gctx, u)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				metrics.CrawlPagesTotal.WithLabelValues("error").Inc()
				c.logger.Warn("Failed to scrape page", zap.String("url", u), zap.Error(err))
				return nil
			}
			metrics.CrawlPagesTotal.WithLabelValues("ok").Inc()
			pages[i] = &webpage.Page{URL: u, Text: text}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}

	out := make([]webpage.Page, 0, len(urls))
	for _, p := range pages {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (c *Crawler) fetchOne(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return c.visibleText(doc), nil
}

// visibleText joins the normalized text of matching elements, one per line,
// dropping short fragments and exact repeats from nested elements.
func (c *Crawler) visibleText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()

	seen := make(map[string]struct{})
	var lines []string
	doc.Find(c.cfg.Selector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if len(text) <= c.cfg.MinTextLen {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		lines = append(lines, text)
	})
	return strings.Join(lines, "\n")
}

