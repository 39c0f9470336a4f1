package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "supportrag"

// Embedding Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ModelLoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_model_loads_total",
			Help:      "Embedding model load attempts",
		},
		[]string{"model", "status"},
	)

	ModelLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_model_load_duration_seconds",
			Help:      "Embedding model load duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"model"},
	)
)

// Retrieval and ingestion metrics.
var (
	RetrievalTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_total",
			Help:      "Retrieval requests by the path that produced the answer",
		},
		[]string{"path"}, // "ann" / "exhaustive" / "none" / "error"
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "End-to-end retrieval duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	DimensionMismatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_dimension_mismatch_total",
			Help:      "Stored embeddings skipped for having the wrong length",
		},
	)

	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_total",
			Help:      "Ingested documents by file type and outcome",
		},
		[]string{"file_type", "status"},
	)

	LexicalMatchesTotal = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lexical_matches",
			Help:      "Blocks matched per lexical query",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		},
	)

	CrawlPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawl_pages_total",
			Help:      "Fetched pages by outcome",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Register registers the domain metrics with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingCacheTotal,
			ModelLoadTotal,
			ModelLoadDuration,
			RetrievalTotal,
			RetrievalDuration,
			DimensionMismatchTotal,
			IngestTotal,
			LexicalMatchesTotal,
			CrawlPagesTotal,
		)
	})
}
