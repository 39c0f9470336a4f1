package retrieval

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/search/result"
	"github.com/kailas-cloud/supportrag/internal/domain/vector"
	"github.com/kailas-cloud/supportrag/internal/logger"
	"github.com/kailas-cloud/supportrag/internal/metrics"
)

// Defaults for Config.
const (
	DefaultK             = 3
	DefaultNumCandidates = 300
	DefaultMinScore      = 0.02
)

// Config tunes retrieval. Zero timeouts disable the bound.
type Config struct {
	K             int
	NumCandidates int
	MinScore      float64
	EmbedTimeout  time.Duration
	StoreTimeout  time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{K: DefaultK, NumCandidates: DefaultNumCandidates, MinScore: DefaultMinScore}
}

// Service ranks stored documents against a query.
type Service struct {
	embedder Embedder
	ann      VectorSearcher
	docs     DocumentLoader
	cfg      Config
}

// New creates a retrieval service. ann may be nil when the store has no index.
func New(embedder Embedder, ann VectorSearcher, docs DocumentLoader, cfg Config) *Service {
	if cfg.K <= 0 {
		cfg.K = DefaultK
	}
	if cfg.NumCandidates <= 0 {
		cfg.NumCandidates = DefaultNumCandidates
	}
	return &Service{embedder: embedder, ann: ann, docs: docs, cfg: cfg}
}

// Retrieve returns at most K results for query, best first. The ANN index is
// tried first; the exhaustive scan runs when it is absent, fails or finds
// nothing. All results come from one path. ErrNoRelevantContent is returned
// when neither path finds anything.
func (s *Service) Retrieve(ctx context.Context, query string) ([]result.Result, error) {
	start := time.Now()
	results, err := s.retrieve(ctx, query)

	path := "none"
	switch {
	case err != nil && !errors.Is(err, domain.ErrNoRelevantContent):
		path = "error"
	case len(results) > 0:
		path = string(results[0].Path())
	}
	metrics.RetrievalTotal.WithLabelValues(path).Inc()
	metrics.RetrievalDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	return results, err
}

func (s *Service) retrieve(ctx context.Context, query string) ([]result.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidQuery
	}

	qv, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if res := s.searchANN(ctx, qv); len(res) > 0 {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	res, err := s.searchExhaustive(ctx, qv)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, domain.ErrNoRelevantContent
	}
	return res, nil
}

func (s *Service) embed(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	res, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return res.Embedding, nil
}

// searchANN returns nil whenever the caller should fall back.
func (s *Service) searchANN(ctx context.Context, qv []float32) []result.Result {
	if s.ann == nil || !s.ann.SupportsVectorSearch(ctx) {
		return nil
	}

	ctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	res, err := s.ann.VectorSearch(ctx, qv, s.cfg.NumCandidates, s.cfg.K)
	if err != nil {
		log := logger.FromContext(ctx)
		if errors.Is(err, domain.ErrVectorSearchUnsupported) {
			log.Debug("Vector index unavailable, using exhaustive scan")
		} else {
			log.Warn("Vector search failed, using exhaustive scan", zap.Error(err))
		}
		return nil
	}
	if len(res) > s.cfg.K {
		res = res[:s.cfg.K]
	}
	return res
}

func (s *Service) searchExhaustive(ctx context.Context, qv []float32) ([]result.Result, error) {
	loadCtx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	docs, err := s.docs.FindScorable(loadCtx)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return nil, fmt.Errorf("load documents: %w", err)
		}
		return nil, fmt.Errorf("load documents: %w: %w", domain.ErrStoreUnavailable, err)
	}

	log := logger.FromContext(ctx)
	scored := make([]result.Result, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		emb := d.Embedding()
		if len(emb) == 0 {
			continue
		}
		if !d.HasEmbedding(len(qv)) {
			metrics.DimensionMismatchTotal.Inc()
			log.Warn("Skipping document with mismatched embedding",
				zap.String("id", d.ID()),
				zap.Int("got", len(emb)),
				zap.Int("want", len(qv)),
			)
			continue
		}
		scored = append(scored, result.New(d.ID(), d.Title(), d.Text(), vector.Cosine(qv, emb), result.PathExhaustive))
	}

	// Stable: equal scores keep insertion order.
	slices.SortStableFunc(scored, func(a, b result.Result) int {
		return cmp.Compare(b.Score(), a.Score())
	})

	out := make([]result.Result, 0, s.cfg.K)
	for _, r := range scored {
		if len(out) == s.cfg.K {
			break
		}
		if r.Score() > s.cfg.MinScore {
			out = append(out, r)
		}
	}
	return out, nil
}

// FormatContext renders results as "title: text (Score: 0.123)" paragraphs.
func FormatContext(results []result.Result) string {
	parts := make([]string, len(results))
	for i := range results {
		r := &results[i]
		parts[i] = fmt.Sprintf("%s: %s (Score: %.3f)", r.Title(), strings.TrimSpace(r.Text()), r.Score())
	}
	return strings.Join(parts, "\n\n")
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
