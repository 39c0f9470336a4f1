package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/config"
	"github.com/kailas-cloud/supportrag/internal/db"
	"github.com/kailas-cloud/supportrag/internal/db/embedded"
	dbRedis "github.com/kailas-cloud/supportrag/internal/db/redis"
	"github.com/kailas-cloud/supportrag/internal/domain"
	logpkg "github.com/kailas-cloud/supportrag/internal/logger"
	"github.com/kailas-cloud/supportrag/internal/metrics"
	corpusrepo "github.com/kailas-cloud/supportrag/internal/repository/corpus"
	documentrepo "github.com/kailas-cloud/supportrag/internal/repository/document"
	"github.com/kailas-cloud/supportrag/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/supportrag/internal/repository/search"
	chiTransport "github.com/kailas-cloud/supportrag/internal/transport/chi"
	"github.com/kailas-cloud/supportrag/internal/transport/crawler"
	"github.com/kailas-cloud/supportrag/internal/transport/hashing"
	openaiEmb "github.com/kailas-cloud/supportrag/internal/transport/openai"
	documentuc "github.com/kailas-cloud/supportrag/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/supportrag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/supportrag/internal/usecase/health"
	"github.com/kailas-cloud/supportrag/internal/usecase/ingest"
	"github.com/kailas-cloud/supportrag/internal/usecase/lexical"
	"github.com/kailas-cloud/supportrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/supportrag/internal/usecase/website"
	"github.com/kailas-cloud/supportrag/internal/version"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting supportrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	store, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database", zap.Bool("vector_search", store.SupportsVectorSearch(ctx)))

	metrics.Register()

	// Repositories
	docRepo := documentrepo.New(store, logger).WithHNSW(documentrepo.HNSWConfig{
		M:           cfg.Retrieval.HNSWM,
		EFConstruct: cfg.Retrieval.HNSWEFConstruct,
	})
	if err := docRepo.EnsureIndex(ctx, cfg.Embedding.Dimensions); err != nil {
		logger.Fatal("Failed to prepare vector index", zap.Error(err))
	}
	searchRepo := searchrepo.New(store)

	// Embedding generator: the model is built on first use unless eager_load is set.
	modelName := embeddingModelName(cfg.Embedding)
	generator := embeddinguc.NewGenerator(modelName, cfg.Embedding.Dimensions,
		buildLoader(cfg.Embedding, modelName, store, logger), logger)
	logger.Info("Embedding model configured",
		zap.String("model", generator.Model()),
		zap.Int("dimensions", generator.Dim()),
		zap.Bool("eager_load", cfg.Embedding.EagerLoad),
	)
	if cfg.Embedding.EagerLoad {
		if err := generator.Warmup(ctx); err != nil {
			logger.Fatal("Failed to load embedding model", zap.Error(err))
		}
	}

	// Use cases
	ingestSvc := ingest.New(docRepo, generator)
	retrievalSvc := retrieval.New(generator, searchRepo, docRepo, retrieval.Config{
		K:             cfg.Retrieval.TopK,
		NumCandidates: cfg.Retrieval.NumCandidates,
		MinScore:      *cfg.Retrieval.MinScore,
		EmbedTimeout:  time.Duration(cfg.Retrieval.EmbedTimeoutSec) * time.Second,
		StoreTimeout:  time.Duration(cfg.Retrieval.StoreTimeoutSec) * time.Second,
	})
	documentSvc := documentuc.New(docRepo).
		WithPagination(cfg.Documents.DefaultPageSize, cfg.Documents.MaxPageSize)

	matcher, err := lexical.NewMatcher(*cfg.Lexical.Threshold)
	if err != nil {
		logger.Fatal("Invalid lexical threshold", zap.Error(err))
	}
	websiteSvc := website.New(
		crawler.New(crawler.Config{
			Timeout:     time.Duration(cfg.Crawler.TimeoutSec) * time.Second,
			UserAgent:   cfg.Crawler.UserAgent,
			Selector:    cfg.Crawler.Selector,
			MinTextLen:  cfg.Crawler.MinTextLen,
			Concurrency: cfg.Crawler.Concurrency,
		}, nil, logger),
		corpusrepo.New(store),
		matcher,
		cfg.Crawler.URLs,
		time.Duration(cfg.Crawler.CacheTTLSec)*time.Second,
	)

	healthSvc := healthuc.New(store, generator)

	server := chiTransport.NewServer(retrievalSvc, ingestSvc, websiteSvc, documentSvc, healthSvc, chiTransport.Options{
		MaxUploadMB: cfg.Upload.MaxSizeMB,
		UploadedBy:  cfg.Upload.UploadedBy,
	})
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "embedded":
		return embedded.Open(embedded.Config{Addr: cfg.EmbeddedAddr})
	case "redis":
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:        cfg.Addrs,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           cfg.DB,
			VectorSearch: cfg.VectorSearch,
		})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func embeddingModelName(cfg config.EmbeddingConfig) string {
	if cfg.Model == openaiEmb.Name {
		return cfg.OpenAI.Model
	}
	return hashing.Name
}

// buildLoader assembles the decorator chain run once on first use:
// provider -> Cached (remote models only) -> Instrumented.
func buildLoader(cfg config.EmbeddingConfig, modelName string, store db.Store, logger *zap.Logger) embeddinguc.Loader {
	return func(ctx context.Context) (domain.Embedder, error) {
		var base domain.Embedder
		switch cfg.Model {
		case openaiEmb.Name:
			e, err := openaiEmb.Load(ctx, &openaiEmb.Config{
				APIKey:     cfg.OpenAI.APIKey,
				BaseURL:    cfg.OpenAI.BaseURL,
				Model:      cfg.OpenAI.Model,
				Dimensions: cfg.Dimensions,
				Timeout:    time.Duration(cfg.OpenAI.TimeoutSec) * time.Second,
			})
			if err != nil {
				return nil, err
			}
			base = e
			if cfg.CacheTTLSec >= 0 {
				base = embcache.New(base, store, embcache.Options{
					Model: modelName,
					Dim:   cfg.Dimensions,
					TTL:   time.Duration(cfg.CacheTTLSec) * time.Second,
				}, metrics.EmbeddingCacheTotal, logger)
			}
		case hashing.Name:
			m, err := hashing.Load(ctx, hashing.Config{Dim: cfg.Dimensions, Seed: cfg.Seed})
			if err != nil {
				return nil, err
			}
			base = m
		default:
			return nil, fmt.Errorf("unknown embedding model %q", cfg.Model)
		}
		return embeddinguc.NewInstrumentedEmbedder(base, modelName, logger), nil
	}
}
