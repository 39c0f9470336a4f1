package ingest

import (
	"context"

	"github.com/kailas-cloud/supportrag/internal/domain"
	domdoc "github.com/kailas-cloud/supportrag/internal/domain/document"
)

// Repository persists new documents.
type Repository interface {
	Save(ctx context.Context, doc *domdoc.Document) (domdoc.Document, error)
}

// Embedder vectorizes document text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
