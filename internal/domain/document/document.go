package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/supportrag/internal/domain/filetype"
)

// DefaultUploader is recorded when the caller does not name one.
const DefaultUploader = "admin"

// MaxTitleLength bounds document titles (uploaded file names).
const MaxTitleLength = 512

// Document is an ingested knowledge-base entry (immutable value object).
type Document struct {
	id         string
	seq        int64
	title      string
	text       string
	fileType   filetype.FileType
	embedding  []float32
	uploadedBy string
	uploadedAt time.Time
}

// New validates and creates a Document that has not been persisted yet.
// Title: non-empty, max 512 chars. Text: non-empty after trimming.
// ID and sequence are assigned by the store on save.
func New(title, text string, ft filetype.FileType, embedding []float32, uploadedBy string, now time.Time) (Document, error) {
	if strings.TrimSpace(title) == "" {
		return Document{}, fmt.Errorf("document title is required")
	}
	if len(title) > MaxTitleLength {
		return Document{}, fmt.Errorf("document title too long (max %d)", MaxTitleLength)
	}
	if strings.TrimSpace(text) == "" {
		return Document{}, fmt.Errorf("document text is required")
	}
	if !ft.Valid() {
		return Document{}, fmt.Errorf("unknown file type %q", ft)
	}
	if uploadedBy == "" {
		uploadedBy = DefaultUploader
	}

	return Document{
		title:      title,
		text:       text,
		fileType:   ft,
		embedding:  cloneVector(embedding),
		uploadedBy: uploadedBy,
		uploadedAt: now.UTC(),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id string, seq int64, title, text string, ft filetype.FileType,
	embedding []float32, uploadedBy string, uploadedAt time.Time,
) Document {
	return Document{
		id: id, seq: seq, title: title, text: text, fileType: ft,
		embedding: embedding, uploadedBy: uploadedBy, uploadedAt: uploadedAt,
	}
}

// WithIdentity returns a copy carrying the store-assigned id and sequence.
func (d *Document) WithIdentity(id string, seq int64) Document {
	c := *d
	c.id = id
	c.seq = seq
	return c
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Seq returns the insertion sequence number (0 before persistence).
func (d *Document) Seq() int64 { return d.seq }

// Title returns the document title, usually the uploaded file name.
func (d *Document) Title() string { return d.title }

// Text returns the extracted document text.
func (d *Document) Text() string { return d.text }

// FileType returns the source file type.
func (d *Document) FileType() filetype.FileType { return d.fileType }

// Embedding returns the stored embedding vector, nil when absent.
func (d *Document) Embedding() []float32 { return d.embedding }

// HasEmbedding reports whether an embedding of exactly dim components is stored.
func (d *Document) HasEmbedding(dim int) bool {
	return len(d.embedding) > 0 && len(d.embedding) == dim
}

// UploadedBy returns who uploaded the document.
func (d *Document) UploadedBy() string { return d.uploadedBy }

// UploadedAt returns when the document was ingested (UTC).
func (d *Document) UploadedAt() time.Time { return d.uploadedAt }

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	c := make([]float32, len(v))
	copy(c, v)
	return c
}
