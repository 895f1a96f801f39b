package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lognlook/lognlook/internal/config"
	"github.com/lognlook/lognlook/internal/db"
	"github.com/lognlook/lognlook/internal/db/memory"
	dbRedis "github.com/lognlook/lognlook/internal/db/redis"
	"github.com/lognlook/lognlook/internal/domain"
	logpkg "github.com/lognlook/lognlook/internal/logger"
	"github.com/lognlook/lognlook/internal/metrics"
	"github.com/lognlook/lognlook/internal/repository/embcache"
	"github.com/lognlook/lognlook/internal/repository/logstore"
	projectrepo "github.com/lognlook/lognlook/internal/repository/project"
	embeddinguc "github.com/lognlook/lognlook/internal/usecase/embedding"
	healthuc "github.com/lognlook/lognlook/internal/usecase/health"
	"github.com/lognlook/lognlook/internal/usecase/llm"
	logsuc "github.com/lognlook/lognlook/internal/usecase/logs"
	"github.com/lognlook/lognlook/internal/usecase/pipeline"
	projectuc "github.com/lognlook/lognlook/internal/usecase/project"
	"github.com/lognlook/lognlook/internal/usecase/retrieval"
	"github.com/lognlook/lognlook/internal/usecase/troubleshoot"
)

// App is the composition root shared by every command.
type App struct {
	Env    string
	Config config.Config
	Logger *zap.Logger

	Store        db.Store
	Projects     *projectrepo.Repo
	LogStore     *logstore.Repo
	Embedder     domain.Embedder
	ProjectSvc   *projectuc.Service
	Pipeline     *pipeline.Service
	Retrieval    *retrieval.Service
	Logs         *logsuc.Service
	Troubleshoot *troubleshoot.Service
	Health       *healthuc.Service
}

// Bootstrap loads the configuration for env and wires every dependency.
func Bootstrap(ctx context.Context, env string) (*App, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	app := &App{Env: env, Config: cfg, Logger: logger}
	if err := app.wire(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config
	logger := a.Logger

	store, err := newStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("create document store: %w", err)
	}
	a.Store = store

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("document store not ready: %w", err)
	}
	logger.Info("Connected to document store",
		zap.String("driver", cfg.Database.Driver),
		zap.Strings("addrs", cfg.Database.Addrs),
	)

	projects, err := projectrepo.Open(ctx, projectrepo.Options{
		Driver:          cfg.Relational.Driver,
		DSN:             cfg.Relational.DSN,
		MaxOpenConns:    cfg.Relational.MaxOpenConns,
		MaxIdleConns:    cfg.Relational.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Relational.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("open project directory: %w", err)
	}
	a.Projects = projects

	metrics.Register()

	provider, err := llm.NewProvider(cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("create llm provider: %w", err)
	}
	a.Embedder = buildEmbedder(provider, store, cfg, logger)
	logger.Info("LLM provider ready",
		zap.String("provider", string(provider.Kind())),
		zap.String("embedding_model", embeddingModel(cfg.LLM)),
		zap.Int("dimensions", cfg.LLM.Dimensions),
	)

	a.LogStore = logstore.New(store, withInstruction(a.Embedder, cfg.LLM.QueryInstruction), logstore.Config{
		KeyPrefix: cfg.Storage.KeyPrefix,
		VectorDim: cfg.Index.VectorDim,
		HNSW: logstore.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		},
	})

	classifier := llm.NewClassifier(provider, cfg.LLM.Temperature, cfg.LLM.MaxTokens, logger)

	a.ProjectSvc = projectuc.New(projects, a.LogStore, logger)
	a.Pipeline = pipeline.New(classifier, withInstruction(a.Embedder, cfg.LLM.DocumentInstruction),
		a.LogStore, pipeline.DefaultConcurrency, logger)
	a.Retrieval = retrieval.New(a.LogStore, retrieval.Config{
		CandidateMultiplier: cfg.Retrieval.CandidateMultiplier,
		MinCandidates:       cfg.Retrieval.MinCandidates,
		SubcallTimeout:      time.Duration(cfg.Retrieval.SubcallTimeoutMs) * time.Millisecond,
		RRFK:                cfg.Retrieval.RRFK,
		TextField:           cfg.Retrieval.TextField,
	}, logger)
	a.Logs = logsuc.New(a.ProjectSvc, a.LogStore, logsuc.Options{
		DefaultPageSize: cfg.Index.DefaultPageSize,
		MaxPageSize:     cfg.Index.MaxPageSize,
	}, logger)
	a.Troubleshoot = troubleshoot.New(a.ProjectSvc, a.LogStore, classifier, a.Retrieval, logger)
	a.Health = healthuc.New(store, projects, newEmbeddingHealthChecker(a.Embedder), logger)
	return nil
}

// Close releases the stores and flushes the logger.
func (a *App) Close() {
	if a.Projects != nil {
		if err := a.Projects.Close(); err != nil {
			a.Logger.Warn("Close project directory", zap.Error(err))
		}
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "redis", "valkey":
		// valkey-search mirrors the FT.* and JSON.* commands of Redis 8.
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// buildEmbedder assembles the decorator chain: provider -> cache -> instrumented.
func buildEmbedder(provider domain.Embedder, store db.Store, cfg config.Config, logger *zap.Logger) domain.Embedder {
	model := embeddingModel(cfg.LLM)

	var embedder = provider
	if cfg.EmbeddingCache.Enabled {
		embedder = embcache.New(provider, store, embcache.Options{
			KeyPrefix:  cfg.Storage.KeyPrefix,
			Model:      model,
			Dimensions: cfg.LLM.Dimensions,
			TTL:        time.Duration(cfg.EmbeddingCache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.LLM.Provider, model, cfg.LLM.Dimensions, logger)
}

// withInstruction prefixes texts for models trained with distinct query and
// document prompts. Comments are embedded as documents, searches as queries.
func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

func embeddingModel(cfg config.LLMConfig) string {
	for _, m := range []string{cfg.Embedding.Model, cfg.EmbeddingModel} {
		if m != "" {
			return m
		}
	}
	return "default"
}

// embeddingHealthChecker adapts domain.Embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
