package lognlook

import (
	"context"

	"github.com/lognlook/lognlook/internal/domain/logdoc"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
	"github.com/lognlook/lognlook/internal/domain/search/result"
	logsuc "github.com/lognlook/lognlook/internal/usecase/logs"
	"github.com/lognlook/lognlook/internal/usecase/pipeline"
	"github.com/lognlook/lognlook/internal/usecase/retrieval"
	"github.com/lognlook/lognlook/internal/usecase/troubleshoot"
)

// --- projectUseCase mock ---

type mockProjectUC struct {
	createFn   func(ctx context.Context, name string, keywords []string, language string) (domproject.Project, error)
	getFn      func(ctx context.Context, id string) (domproject.Project, error)
	listFn     func(ctx context.Context) ([]domproject.Project, error)
	keywordsFn func(ctx context.Context, id string, keywords []string) (domproject.Project, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockProjectUC) Create(
	ctx context.Context, name string, keywords []string, language string,
) (domproject.Project, error) {
	return m.createFn(ctx, name, keywords, language)
}

func (m *mockProjectUC) Get(ctx context.Context, id string) (domproject.Project, error) {
	return m.getFn(ctx, id)
}

func (m *mockProjectUC) List(ctx context.Context) ([]domproject.Project, error) {
	return m.listFn(ctx)
}

func (m *mockProjectUC) UpdateKeywords(ctx context.Context, id string, keywords []string) (domproject.Project, error) {
	return m.keywordsFn(ctx, id, keywords)
}

func (m *mockProjectUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- ingestUseCase mock ---

type mockIngestUC struct {
	ingestFn func(ctx context.Context, p domproject.Project, e pipeline.Entry) (logdoc.Document, error)
	batchFn  func(ctx context.Context, p domproject.Project, entries []pipeline.Entry) ([]pipeline.ItemResult, error)
}

func (m *mockIngestUC) Ingest(ctx context.Context, p domproject.Project, e pipeline.Entry) (logdoc.Document, error) {
	return m.ingestFn(ctx, p, e)
}

func (m *mockIngestUC) IngestBatch(
	ctx context.Context, p domproject.Project, entries []pipeline.Entry,
) ([]pipeline.ItemResult, error) {
	return m.batchFn(ctx, p, entries)
}

// --- retrievalUseCase mock ---

type mockRetrievalUC struct {
	retrieveFn func(ctx context.Context, index string, q retrieval.Query) ([]result.Result, error)
	hybridFn   func(ctx context.Context, index, text string, k int) ([]result.Result, error)
}

func (m *mockRetrievalUC) Retrieve(ctx context.Context, index string, q retrieval.Query) ([]result.Result, error) {
	return m.retrieveFn(ctx, index, q)
}

func (m *mockRetrievalUC) HybridSearch(ctx context.Context, index, text string, k int) ([]result.Result, error) {
	return m.hybridFn(ctx, index, text, k)
}

// --- browseUseCase mock ---

type mockBrowseUC struct {
	presetFn func(ctx context.Context, projectID string, preset logsuc.Preset, limit int) ([]logdoc.Document, error)
	recentFn func(ctx context.Context, projectID string, page, pageSize int) ([]logdoc.Document, error)
	detailFn func(ctx context.Context, projectID string, ids []string) ([]logdoc.Document, error)
}

func (m *mockBrowseUC) ListByPreset(
	ctx context.Context, projectID string, preset logsuc.Preset, limit int,
) ([]logdoc.Document, error) {
	return m.presetFn(ctx, projectID, preset, limit)
}

func (m *mockBrowseUC) Recent(ctx context.Context, projectID string, page, pageSize int) ([]logdoc.Document, error) {
	return m.recentFn(ctx, projectID, page, pageSize)
}

func (m *mockBrowseUC) Detail(ctx context.Context, projectID string, ids []string) ([]logdoc.Document, error) {
	return m.detailFn(ctx, projectID, ids)
}

// --- troubleshootUseCase mock ---

type mockTroubleshootUC struct {
	analyzeFn func(ctx context.Context, projectID, query string, logIDs []string) (troubleshoot.Analysis, error)
	askFn     func(ctx context.Context, projectID string, q retrieval.Query) (troubleshoot.Analysis, error)
}

func (m *mockTroubleshootUC) Analyze(
	ctx context.Context, projectID, query string, logIDs []string,
) (troubleshoot.Analysis, error) {
	return m.analyzeFn(ctx, projectID, query, logIDs)
}

func (m *mockTroubleshootUC) Ask(ctx context.Context, projectID string, q retrieval.Query) (troubleshoot.Analysis, error) {
	return m.askFn(ctx, projectID, q)
}

// --- public provider mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockChat struct {
	fn func(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
}

func (m *mockChat) Complete(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	return m.fn(ctx, messages, opts)
}

func projectWithIndex(index string) func(context.Context, string) (domproject.Project, error) {
	return func(_ context.Context, got string) (domproject.Project, error) {
		return domproject.Project{ID: got, Name: "checkout", IndexName: index}, nil
	}
}
