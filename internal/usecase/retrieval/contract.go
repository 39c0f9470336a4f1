package retrieval

import (
	"context"

	"github.com/kailas-cloud/supportrag/internal/domain"
	domdoc "github.com/kailas-cloud/supportrag/internal/domain/document"
	"github.com/kailas-cloud/supportrag/internal/domain/search/result"
)

// Embedder vectorizes queries.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorSearcher is the optional ANN capability of the store.
type VectorSearcher interface {
	SupportsVectorSearch(ctx context.Context) bool
	VectorSearch(ctx context.Context, qv []float32, numCandidates, limit int) ([]result.Result, error)
}

// DocumentLoader reads every stored document with text and embedding.
type DocumentLoader interface {
	FindScorable(ctx context.Context) ([]domdoc.Document, error)
}
