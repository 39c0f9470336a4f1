package document

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/db"
	"github.com/kailas-cloud/supportrag/internal/domain"
	domdoc "github.com/kailas-cloud/supportrag/internal/domain/document"
)

// Key layout.
const (
	KeyPrefix = domain.KeyPrefix + "doc:"
	IndexName = domain.KeyPrefix + "doc_idx"
	seqKey    = domain.KeyPrefix + "doc_seq"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Incr(ctx context.Context, key string) (int64, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SupportsVectorSearch(ctx context.Context) bool
}

// Repo persists documents as one hash per document.
type Repo struct {
	store  store
	logger *zap.Logger
	hnsw   HNSWConfig
}

// HNSWConfig holds build parameters of the vector index. Zero values keep the db defaults.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// New creates a document repository.
func New(s store, logger *zap.Logger) *Repo {
	return &Repo{store: s, logger: logger}
}

// WithHNSW overrides the index build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the HNSW index for the given dimension when the
// backend supports vector search. Without the capability it is a no-op.
func (r *Repo) EnsureIndex(ctx context.Context, dim int) error {
	if !r.store.SupportsVectorSearch(ctx) {
		r.logger.Info("Vector search unavailable, skipping index creation")
		return nil
	}

	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", IndexName, err)
	}
	if exists {
		return nil
	}

	def := db.NewVectorIndex(IndexName, KeyPrefix, FieldEmbedding, dim,
		[]string{FieldFileType}, []string{FieldSeq})
	for i := range def.Fields {
		if def.Fields[i].Type != db.IndexFieldVector {
			continue
		}
		if r.hnsw.M > 0 {
			def.Fields[i].M = r.hnsw.M
		}
		if r.hnsw.EFConstruct > 0 {
			def.Fields[i].EFConstruction = r.hnsw.EFConstruct
		}
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", IndexName, err)
	}
	r.logger.Info("Created vector index", zap.String("index", IndexName), zap.Int("dim", dim))
	return nil
}

// Save assigns id and sequence from the store counter and writes the
// document with a single HSET. The stored document is returned.
func (r *Repo) Save(ctx context.Context, doc *domdoc.Document) (domdoc.Document, error) {
	seq, err := r.store.Incr(ctx, seqKey)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("allocate seq: %w: %w", domain.ErrStoreUnavailable, err)
	}

	id := strconv.FormatInt(seq, 10)
	stored := doc.WithIdentity(id, seq)

	if err := r.store.HSet(ctx, KeyPrefix+id, buildHashFields(&stored)); err != nil {
		return domdoc.Document{}, fmt.Errorf("hset %s: %w: %w", id, domain.ErrStoreUnavailable, err)
	}
	return stored, nil
}

// Get returns one document with text, without its embedding.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	m, err := r.store.HGetAll(ctx, KeyPrefix+id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w: %w", id, domain.ErrStoreUnavailable, err)
	}
	if len(m) == 0 {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return parseHashFields(id, m, Projection{Text: true})
}

// FindAll returns every document in insertion order. Hashes that fail to
// parse are logged and skipped.
func (r *Repo) FindAll(ctx context.Context, p Projection) ([]domdoc.Document, error) {
	keys, err := r.store.Scan(ctx, KeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w: %w", domain.ErrStoreUnavailable, err)
	}

	docs := make([]domdoc.Document, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue // deleted between SCAN and HGETALL
		}
		id := strings.TrimPrefix(keys[i], KeyPrefix)
		doc, err := parseHashFields(id, m, p)
		if err != nil {
			r.logger.Warn("Skipping unreadable document", zap.String("id", id), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}

	slices.SortFunc(docs, func(a, b domdoc.Document) int {
		return cmp.Compare(a.Seq(), b.Seq())
	})
	return docs, nil
}

// List returns at most limit document summaries in insertion order and
// the number of stored documents.
func (r *Repo) List(ctx context.Context, limit int) ([]domdoc.Document, int, error) {
	docs, err := r.FindAll(ctx, Summary)
	if err != nil {
		return nil, 0, err
	}
	total := len(docs)
	if limit > 0 && total > limit {
		docs = docs[:limit]
	}
	return docs, total, nil
}

// FindScorable returns every document with its text and embedding, in insertion order.
func (r *Repo) FindScorable(ctx context.Context) ([]domdoc.Document, error) {
	return r.FindAll(ctx, Scoring)
}
