package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals empty or malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidQuery signals an empty retrieval query.
	ErrInvalidQuery = fmt.Errorf("invalid query: %w", ErrInvalidInput)
	// ErrEmptyContent signals that extraction produced no text.
	ErrEmptyContent = errors.New("empty content")
	// ErrUnsupportedFileType signals an upload that is not pdf, docx or txt.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrModelUnavailable signals that the embedding model could not be loaded or called.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrStoreUnavailable signals a document store or vector index failure.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrVectorSearchUnsupported signals that the store has no ANN index.
	ErrVectorSearchUnsupported = errors.New("vector search not supported by backend")
	// ErrNoRelevantContent is the valid "nothing matched" outcome.
	ErrNoRelevantContent = errors.New("no relevant content")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
