package website

import (
	"context"
	"time"

	"github.com/kailas-cloud/supportrag/internal/domain/webpage"
	"github.com/kailas-cloud/supportrag/internal/usecase/lexical"
)

// Crawler fetches the configured pages.
type Crawler interface {
	Fetch(ctx context.Context, urls []string) ([]webpage.Page, error)
}

// Cache keeps scraped pages between requests.
type Cache interface {
	Load(ctx context.Context, urls []string) ([]webpage.Page, bool, error)
	Save(ctx context.Context, urls []string, pages []webpage.Page, ttl time.Duration) error
}

// Matcher ranks text blocks against a query.
type Matcher interface {
	Match(query string, corpus []lexical.Entry) []lexical.Match
}
