package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/supportrag/internal/db"
	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/search/result"
	docrepo "github.com/kailas-cloud/supportrag/internal/repository/document"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SupportsVectorSearch(ctx context.Context) bool
}

// Repo runs ANN queries against the document index.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SupportsVectorSearch proxies the capability check from the store.
func (r *Repo) SupportsVectorSearch(ctx context.Context) bool {
	return r.store.SupportsVectorSearch(ctx)
}

// VectorSearch returns up to limit nearest documents, best first, exploring
// numCandidates graph entries. Scores are cosine similarity.
func (r *Repo) VectorSearch(
	ctx context.Context, qv []float32, numCandidates, limit int,
) ([]result.Result, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    docrepo.IndexName,
		VectorField:  docrepo.FieldEmbedding,
		Vector:       qv,
		K:            limit,
		EFRuntime:    max(numCandidates, limit),
		ReturnFields: []string{docrepo.FieldTitle, docrepo.FieldText},
	})
	if err != nil {
		if errors.Is(err, db.ErrVectorSearchDisabled) {
			return nil, domain.ErrVectorSearchUnsupported
		}
		return nil, fmt.Errorf("vector search: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	results := make([]result.Result, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		results = append(results, result.New(
			strings.TrimPrefix(e.Key, docrepo.KeyPrefix),
			e.Fields[docrepo.FieldTitle],
			e.Fields[docrepo.FieldText],
			e.Score,
			result.PathANN,
		))
	}
	return results, nil
}
