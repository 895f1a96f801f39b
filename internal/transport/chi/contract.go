package chi

import (
	"context"

	"github.com/lognlook/lognlook/internal/domain/logdoc"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
	"github.com/lognlook/lognlook/internal/domain/search/result"
	healthuc "github.com/lognlook/lognlook/internal/usecase/health"
	logsuc "github.com/lognlook/lognlook/internal/usecase/logs"
	"github.com/lognlook/lognlook/internal/usecase/pipeline"
	"github.com/lognlook/lognlook/internal/usecase/retrieval"
	"github.com/lognlook/lognlook/internal/usecase/troubleshoot"
)

// Projects is the project directory.
type Projects interface {
	Create(ctx context.Context, name string, keywords []string, language string) (domproject.Project, error)
	Get(ctx context.Context, id string) (domproject.Project, error)
	Authenticate(ctx context.Context, apiKey string) (domproject.Project, error)
	List(ctx context.Context) ([]domproject.Project, error)
	UpdateKeywords(ctx context.Context, id string, keywords []string) (domproject.Project, error)
	Delete(ctx context.Context, id string) error
}

// Ingester runs the enrichment pipeline.
type Ingester interface {
	Ingest(ctx context.Context, p domproject.Project, e pipeline.Entry) (logdoc.Document, error)
	IngestBatch(ctx context.Context, p domproject.Project, entries []pipeline.Entry) ([]pipeline.ItemResult, error)
}

// Retriever answers retrieval queries.
type Retriever interface {
	Retrieve(ctx context.Context, index string, q retrieval.Query) ([]result.Result, error)
	HybridSearch(ctx context.Context, index, text string, k int) ([]result.Result, error)
}

// Browser serves the log listing views.
type Browser interface {
	ListByPreset(ctx context.Context, projectID string, preset logsuc.Preset, limit int) ([]logdoc.Document, error)
	Recent(ctx context.Context, projectID string, page, pageSize int) ([]logdoc.Document, error)
	Detail(ctx context.Context, projectID string, ids []string) ([]logdoc.Document, error)
}

// Troubleshooter produces troubleshooting analyses.
type Troubleshooter interface {
	Analyze(ctx context.Context, projectID, query string, logIDs []string) (troubleshoot.Analysis, error)
	Ask(ctx context.Context, projectID string, q retrieval.Query) (troubleshoot.Analysis, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
