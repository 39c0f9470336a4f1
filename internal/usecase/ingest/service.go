package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	domdoc "github.com/kailas-cloud/supportrag/internal/domain/document"
	"github.com/kailas-cloud/supportrag/internal/domain/filetype"
	"github.com/kailas-cloud/supportrag/internal/logger"
	"github.com/kailas-cloud/supportrag/internal/metrics"
)

// Input is extracted upload content ready for ingestion.
type Input struct {
	Title      string
	Text       string
	FileType   filetype.FileType
	UploadedBy string
}

// Service embeds and stores uploaded documents.
type Service struct {
	repo     Repository
	embedder Embedder
	now      func() time.Time
}

// New creates an ingestion service.
func New(repo Repository, embedder Embedder) *Service {
	return &Service{repo: repo, embedder: embedder, now: time.Now}
}

// Ingest embeds the text and stores it as a new document. Nothing is
// persisted when validation or embedding fails. Re-uploading the same
// content creates another document.
func (s *Service) Ingest(ctx context.Context, in Input) (domdoc.Document, error) {
	doc, err := s.ingest(ctx, in)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.IngestTotal.WithLabelValues(string(in.FileType), status).Inc()
	return doc, err
}

func (s *Service) ingest(ctx context.Context, in Input) (domdoc.Document, error) {
	if strings.TrimSpace(in.Text) == "" {
		return domdoc.Document{}, fmt.Errorf("document %q: %w", in.Title, domain.ErrEmptyContent)
	}
	if strings.TrimSpace(in.Title) == "" {
		return domdoc.Document{}, fmt.Errorf("document title is required: %w", domain.ErrInvalidInput)
	}
	if len(in.Title) > domdoc.MaxTitleLength {
		return domdoc.Document{}, fmt.Errorf("document title too long (max %d): %w",
			domdoc.MaxTitleLength, domain.ErrInvalidInput)
	}
	if !in.FileType.Valid() {
		return domdoc.Document{}, fmt.Errorf("file type %q: %w", in.FileType, domain.ErrInvalidInput)
	}

	res, err := s.embedder.Embed(ctx, in.Text)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("vectorize document: %w", err)
	}

	doc, err := domdoc.New(in.Title, in.Text, in.FileType, res.Embedding, in.UploadedBy, s.now())
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	saved, err := s.repo.Save(ctx, &doc)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("save document: %w", err)
	}

	logger.FromContext(ctx).Info("Document ingested",
		zap.String("id", saved.ID()),
		zap.String("title", saved.Title()),
		zap.String("file_type", string(saved.FileType())),
		zap.Int("chars", len(saved.Text())),
	)
	return saved, nil
}
