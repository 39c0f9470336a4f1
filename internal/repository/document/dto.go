package document

import (
	"fmt"
	"strconv"
	"time"

	domdoc "github.com/kailas-cloud/supportrag/internal/domain/document"
	"github.com/kailas-cloud/supportrag/internal/domain/filetype"
	"github.com/kailas-cloud/supportrag/internal/domain/vector"
)

// Hash field names. FieldEmbedding is also the vector field of the FT index.
const (
	FieldSeq        = "seq"
	FieldTitle      = "title"
	FieldText       = "text"
	FieldFileType   = "file_type"
	FieldUploadedBy = "uploaded_by"
	FieldUploadedAt = "uploaded_at"
	FieldEmbedding  = "embedding"
)

// Projection selects the heavy fields hydrated by FindAll.
type Projection struct {
	Text      bool
	Embedding bool
}

// Projections used by callers.
var (
	// Summary is metadata only, for listings.
	Summary = Projection{}
	// Scoring carries what the exhaustive ranker needs.
	Scoring = Projection{Text: true, Embedding: true}
)

func buildHashFields(doc *domdoc.Document) map[string]string {
	m := map[string]string{
		FieldSeq:        strconv.FormatInt(doc.Seq(), 10),
		FieldTitle:      doc.Title(),
		FieldText:       doc.Text(),
		FieldFileType:   doc.FileType().String(),
		FieldUploadedBy: doc.UploadedBy(),
		FieldUploadedAt: doc.UploadedAt().Format(time.RFC3339Nano),
	}
	// HNSW skips hashes without the vector field, which keeps
	// embedding-less documents out of ANN but in the fallback scan.
	if emb := doc.Embedding(); len(emb) > 0 {
		m[FieldEmbedding] = string(vector.ToBytes(emb))
	}
	return m
}

func parseHashFields(id string, m map[string]string, p Projection) (domdoc.Document, error) {
	seq, err := strconv.ParseInt(m[FieldSeq], 10, 64)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: bad seq %q: %w", id, m[FieldSeq], err)
	}

	var uploadedAt time.Time
	if raw := m[FieldUploadedAt]; raw != "" {
		uploadedAt, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domdoc.Document{}, fmt.Errorf("document %s: bad uploaded_at: %w", id, err)
		}
	}

	ft, _ := filetype.Parse(m[FieldFileType])

	var text string
	if p.Text {
		text = m[FieldText]
	}

	var emb []float32
	if raw, ok := m[FieldEmbedding]; ok && p.Embedding {
		emb, err = vector.FromBytes([]byte(raw))
		if err != nil {
			return domdoc.Document{}, fmt.Errorf("document %s: %w", id, err)
		}
	}

	return domdoc.Reconstruct(id, seq, m[FieldTitle], text, ft, emb, m[FieldUploadedBy], uploadedAt), nil
}
