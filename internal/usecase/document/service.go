package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/supportrag/internal/domain"
	domdoc "github.com/kailas-cloud/supportrag/internal/domain/document"
)

// Service exposes stored documents to operators.
type Service struct {
	repo            Repository
	defaultPageSize int
	maxPageSize     int
}

// New creates a document service.
func New(repo Repository) *Service {
	return &Service{
		repo:            repo,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Get retrieves a document by ID. The embedding is not loaded.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Document, error) {
	if strings.TrimSpace(id) == "" {
		return domdoc.Document{}, fmt.Errorf("document id is required: %w", domain.ErrInvalidInput)
	}

	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns one page of document summaries in insertion order and
// the number of stored documents.
func (s *Service) List(ctx context.Context, limit int) ([]domdoc.Document, int, error) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	docs, total, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	return docs, total, nil
}
