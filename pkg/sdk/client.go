package lognlook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lognlook/lognlook/internal/db"
	"github.com/lognlook/lognlook/internal/db/memory"
	dbRedis "github.com/lognlook/lognlook/internal/db/redis"
	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
	"github.com/lognlook/lognlook/internal/domain/search/result"
	"github.com/lognlook/lognlook/internal/repository/logstore"
	projectrepo "github.com/lognlook/lognlook/internal/repository/project"
	healthuc "github.com/lognlook/lognlook/internal/usecase/health"
	"github.com/lognlook/lognlook/internal/usecase/llm"
	logsuc "github.com/lognlook/lognlook/internal/usecase/logs"
	"github.com/lognlook/lognlook/internal/usecase/pipeline"
	projectuc "github.com/lognlook/lognlook/internal/usecase/project"
	"github.com/lognlook/lognlook/internal/usecase/retrieval"
	"github.com/lognlook/lognlook/internal/usecase/troubleshoot"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for fakes in tests.
type projectUseCase interface {
	Create(ctx context.Context, name string, keywords []string, language string) (domproject.Project, error)
	Get(ctx context.Context, id string) (domproject.Project, error)
	List(ctx context.Context) ([]domproject.Project, error)
	UpdateKeywords(ctx context.Context, id string, keywords []string) (domproject.Project, error)
	Delete(ctx context.Context, id string) error
}

type ingestUseCase interface {
	Ingest(ctx context.Context, p domproject.Project, e pipeline.Entry) (logdoc.Document, error)
	IngestBatch(ctx context.Context, p domproject.Project, entries []pipeline.Entry) ([]pipeline.ItemResult, error)
}

type retrievalUseCase interface {
	Retrieve(ctx context.Context, index string, q retrieval.Query) ([]result.Result, error)
	HybridSearch(ctx context.Context, index, text string, k int) ([]result.Result, error)
}

type browseUseCase interface {
	ListByPreset(ctx context.Context, projectID string, preset logsuc.Preset, limit int) ([]logdoc.Document, error)
	Recent(ctx context.Context, projectID string, page, pageSize int) ([]logdoc.Document, error)
	Detail(ctx context.Context, projectID string, ids []string) ([]logdoc.Document, error)
}

type troubleshootUseCase interface {
	Analyze(ctx context.Context, projectID, query string, logIDs []string) (troubleshoot.Analysis, error)
	Ask(ctx context.Context, projectID string, q retrieval.Query) (troubleshoot.Analysis, error)
}

type closer interface{ Close() error }

// Client is the lognlook SDK entry point.
type Client struct {
	store       db.Store
	projectDB   closer
	projectSvc  projectUseCase
	ingestSvc   ingestUseCase
	retrieveSvc retrievalUseCase
	browseSvc   browseUseCase
	troubleSvc  troubleshootUseCase
	healthSvc   healthUseCase
	obs         *observer
}

// New creates a Client, connects to the stores and waits for readiness.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: domain.DefaultVectorDimensions,
		projectDriver:    projectrepo.DriverSQLite,
		projectDSN:       ":memory:",
		keyPrefix:        "lognlook:",
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("lognlook: document store required (use WithRedis, WithValkey or WithMemory)")
	}
	if cfg.embedder == nil {
		return nil, errNoEmbedder
	}
	if cfg.chat == nil {
		return nil, errNoChatModel
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("lognlook: document store not ready: %w", err)
	}

	projects, err := projectrepo.Open(ctx, projectrepo.Options{Driver: cfg.projectDriver, DSN: cfg.projectDSN})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("lognlook: open project directory: %w", err)
	}

	return wireClient(store, projects, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		if len(cfg.addrs) == 0 {
			return nil, fmt.Errorf("lognlook: %s address required", cfg.driver)
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("lognlook: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("lognlook: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, projects *projectrepo.Repo, cfg *clientConfig, obs *observer) *Client {
	// The SDK logs through slog via the observer; internal services stay quiet.
	logger := zap.NewNop()

	emb := &embedderAdapter{inner: cfg.embedder}
	chat := &chatAdapter{inner: cfg.chat}

	logs := logstore.New(store, emb, logstore.Config{
		KeyPrefix: cfg.keyPrefix,
		VectorDim: cfg.vectorDimensions,
		HNSW:      logstore.HNSWConfig{M: cfg.hnswM, EFConstruct: cfg.hnswEFConstruct},
	})
	classifier := llm.NewClassifier(chat, 0, 0, logger)

	projectSvc := projectuc.New(projects, logs, logger)
	retrieveSvc := retrieval.New(logs, retrieval.Config{
		CandidateMultiplier: cfg.candidateMultiplier,
		MinCandidates:       cfg.minCandidates,
	}, logger)

	return &Client{
		store:       store,
		projectDB:   projects,
		projectSvc:  projectSvc,
		ingestSvc:   pipeline.New(classifier, emb, logs, cfg.concurrency, logger),
		retrieveSvc: retrieveSvc,
		browseSvc:   logsuc.New(projectSvc, logs, logsuc.Options{}, logger),
		troubleSvc:  troubleshoot.New(projectSvc, logs, classifier, retrieveSvc, logger),
		healthSvc:   healthuc.New(store, projects, emb, logger),
		obs:         obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.projectDB != nil {
		_ = c.projectDB.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks document store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Projects returns the project management service.
func (c *Client) Projects() *ProjectService {
	return &ProjectService{svc: c.projectSvc, obs: c.obs}
}

// Logs returns the ingestion and browsing service for a project.
func (c *Client) Logs(projectID string) *LogService {
	return &LogService{
		projectID: projectID,
		projects:  c.projectSvc,
		ingest:    c.ingestSvc,
		browse:    c.browseSvc,
		obs:       c.obs.forProject(projectID),
	}
}

// Search returns the search service for a project.
func (c *Client) Search(projectID string) *SearchService {
	return &SearchService{
		projectID: projectID,
		projects:  c.projectSvc,
		svc:       c.retrieveSvc,
		obs:       c.obs.forProject(projectID),
	}
}

// Troubleshoot returns the troubleshooting assistant for a project.
func (c *Client) Troubleshoot(projectID string) *TroubleshootService {
	return &TroubleshootService{projectID: projectID, svc: c.troubleSvc, obs: c.obs.forProject(projectID)}
}
