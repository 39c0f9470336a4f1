package chi

import (
	"context"

	domdoc "github.com/kailas-cloud/supportrag/internal/domain/document"
	"github.com/kailas-cloud/supportrag/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/supportrag/internal/usecase/health"
	"github.com/kailas-cloud/supportrag/internal/usecase/ingest"
)

// Retriever ranks stored documents against a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]result.Result, error)
}

// Ingester stores uploaded documents.
type Ingester interface {
	Ingest(ctx context.Context, in ingest.Input) (domdoc.Document, error)
}

// WebsiteSearcher answers queries from scraped pages.
type WebsiteSearcher interface {
	Content(ctx context.Context, query string) (string, error)
}

// DocumentReader reads stored documents for operators.
type DocumentReader interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
	List(ctx context.Context, limit int) ([]domdoc.Document, int, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
