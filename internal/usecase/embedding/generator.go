package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/metrics"
)

// Generator turns text into fixed-length vectors using a lazily loaded model.
// Concurrent first calls share one load. Once loaded the model is kept for
// the life of the process.
type Generator struct {
	name   string
	dim    int
	load   Loader
	logger *zap.Logger

	group singleflight.Group
	mu    sync.RWMutex
	model domain.Embedder
}

// NewGenerator creates a generator producing vectors of length dim.
func NewGenerator(name string, dim int, load Loader, logger *zap.Logger) *Generator {
	return &Generator{name: name, dim: dim, load: load, logger: logger}
}

// Dim returns the configured vector length.
func (g *Generator) Dim() int { return g.dim }

// Model returns the configured model name.
func (g *Generator) Model() string { return g.name }

// Loaded reports whether the model is ready.
func (g *Generator) Loaded() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.model != nil
}

// Warmup loads the model ahead of the first request.
func (g *Generator) Warmup(ctx context.Context) error {
	_, err := g.get(ctx)
	return err
}

// Embed returns the embedding of text.
func (g *Generator) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("empty text: %w", domain.ErrInvalidInput)
	}

	model, err := g.get(ctx)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	res, err := model.Embed(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", ctxErr)
		}
		if errors.Is(err, domain.ErrModelUnavailable) {
			return domain.EmbeddingResult{}, err
		}
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	if len(res.Embedding) != g.dim {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: model %s returned %d, want %d",
			domain.ErrVectorDimMismatch, g.name, len(res.Embedding), g.dim)
	}
	return res, nil
}

func (g *Generator) get(ctx context.Context) (domain.Embedder, error) {
	g.mu.RLock()
	m := g.model
	g.mu.RUnlock()
	if m != nil {
		return m, nil
	}

	// The load outlives any single caller; each caller waits on its own ctx.
	ch := g.group.DoChan("model", func() (any, error) {
		return g.loadOnce(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for model: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(domain.Embedder), nil //nolint:forcetypeassert // loadOnce only returns Embedder
	}
}

func (g *Generator) loadOnce(ctx context.Context) (domain.Embedder, error) {
	g.mu.RLock()
	m := g.model
	g.mu.RUnlock()
	if m != nil {
		return m, nil
	}

	start := time.Now()
	m, err := g.load(ctx)
	metrics.ModelLoadDuration.WithLabelValues(g.name).Observe(time.Since(start).Seconds())
	if err == nil && m == nil {
		err = errors.New("loader returned no model")
	}
	if err != nil {
		metrics.ModelLoadTotal.WithLabelValues(g.name, "error").Inc()
		g.logger.Error("Embedding model load failed", zap.String("model", g.name), zap.Error(err))
		return nil, fmt.Errorf("%w: load %s: %w", domain.ErrModelUnavailable, g.name, err)
	}

	g.mu.Lock()
	g.model = m
	g.mu.Unlock()

	metrics.ModelLoadTotal.WithLabelValues(g.name, "ok").Inc()
	g.logger.Info("Embedding model loaded",
		zap.String("model", g.name),
		zap.Int("dim", g.dim),
		zap.Duration("duration", time.Since(start)),
	)
	return m, nil
}
