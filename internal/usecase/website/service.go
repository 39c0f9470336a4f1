package website

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/webpage"
	"github.com/kailas-cloud/supportrag/internal/logger"
	"github.com/kailas-cloud/supportrag/internal/metrics"
	"github.com/kailas-cloud/supportrag/internal/usecase/lexical"
)

// Service answers queries from the text of the configured website pages.
type Service struct {
	crawler  Crawler
	cache    Cache
	matcher  Matcher
	urls     []string
	cacheTTL time.Duration
}

// New creates a Service. cache may be nil; cacheTTL <= 0 disables caching.
func New(c Crawler, cache Cache, m Matcher, urls []string, cacheTTL time.Duration) *Service {
	return &Service{crawler: c, cache: cache, matcher: m, urls: urls, cacheTTL: cacheTTL}
}

// Content returns the page blocks matching query joined by newlines.
func (s *Service) Content(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", domain.ErrInvalidQuery
	}

	pages, err := s.pages(ctx)
	if err != nil {
		return "", err
	}

	blocks := lexical.SplitBlocks(webpage.Render(pages))
	corpus := make([]lexical.Entry, len(blocks))
	for i, b := range blocks {
		corpus[i] = lexical.Entry{Key: strconv.Itoa(i), Text: b}
	}

	matches := s.matcher.Match(query, corpus)
	metrics.LexicalMatchesTotal.Observe(float64(len(matches)))
	if len(matches) == 0 {
		return "", domain.ErrNoRelevantContent
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return strings.Join(texts, "\n"), nil
}

func (s *Service) pages(ctx context.Context) ([]webpage.Page, error) {
	log := logger.FromContext(ctx)

	if s.cache != nil && s.cacheTTL > 0 {
		pages, ok, err := s.cache.Load(ctx, s.urls)
		switch {
		case err != nil:
			log.Warn("Corpus cache read failed", zap.Error(err))
		case ok:
			return pages, nil
		}
	}

	pages, err := s.crawler.Fetch(ctx, s.urls)
	if err != nil {
		return nil, fmt.Errorf("fetch pages: %w", err)
	}
	log.Info("Scraped website pages", zap.Int("requested", len(s.urls)), zap.Int("fetched", len(pages)))

	// Partial crawls are not cached.
	if s.cache != nil && s.cacheTTL > 0 && len(pages) == len(s.urls) {
		if err := s.cache.Save(ctx, s.urls, pages, s.cacheTTL); err != nil {
			log.Warn("Corpus cache write failed", zap.Error(err))
		}
	}
	return pages, nil
}
