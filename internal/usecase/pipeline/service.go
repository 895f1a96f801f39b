// Package pipeline turns raw log lines into enriched, stored documents.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
	"github.com/lognlook/lognlook/internal/metrics"
)

// Batch limits.
const (
	MaxBatchSize       = 100
	DefaultConcurrency = 4
)

// Entry is one raw log line with its passthrough metadata.
type Entry struct {
	Message string                     `json:"message"`
	Extras  map[string]json.RawMessage `json:"extras,omitempty"`
}

// ItemResult is the per-line outcome of a batch.
type ItemResult struct {
	Index    int
	Document logdoc.Document
	Err      error
}

// Service is the log enrichment pipeline.
type Service struct {
	classifier  Classifier
	embedder    domain.Embedder
	store       Store
	concurrency int
	logger      *zap.Logger
}

// New creates a pipeline. concurrency bounds parallel enrichment in batches.
func New(classifier Classifier, embedder domain.Embedder, store Store, concurrency int, logger *zap.Logger) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		classifier:  classifier,
		embedder:    embedder,
		store:       store,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Ingest parses, classifies, embeds and stores one log line for project p.
// A classification or embedding failure returns ErrEnrichment and nothing is
// written.
func (s *Service) Ingest(ctx context.Context, p domproject.Project, e Entry) (logdoc.Document, error) {
	if strings.TrimSpace(e.Message) == "" {
		return logdoc.Document{}, domain.NewValidationError("message", "is required")
	}
	start := time.Now()

	doc := logdoc.Parse(e.Message, e.Extras)

	cls, err := s.classifier.Classify(ctx, doc.Message, p.Keywords, p.Language)
	if err != nil {
		return logdoc.Document{}, s.enrichmentFailed(p, "classify", err)
	}
	doc.Comment = cls.Comment
	doc.Keyword = cls.Keyword

	emb, err := s.embedder.Embed(ctx, doc.Comment)
	if err != nil {
		return logdoc.Document{}, s.enrichmentFailed(p, "embed", err)
	}
	doc.Vector = emb.Embedding

	id, err := s.store.SaveDocument(ctx, p.IndexName, doc)
	if err != nil {
		metrics.IngestionTotal.WithLabelValues("store_failed").Inc()
		return logdoc.Document{}, fmt.Errorf("save document: %w", err)
	}
	doc.ID = id
	metrics.IngestionTotal.WithLabelValues("stored").Inc()

	s.logger.Debug("Log line ingested",
		zap.String("project_id", p.ID),
		zap.String("index", p.IndexName),
		zap.String("id", id),
		zap.String("keyword", doc.Keyword),
		zap.Duration("duration", time.Since(start)),
	)
	return doc, nil
}

// IngestBatch ingests entries concurrently. Lines are independent: one
// failure does not stop the others. Results are in input order.
func (s *Service) IngestBatch(ctx context.Context, p domproject.Project, entries []Entry) ([]ItemResult, error) {
	if len(entries) == 0 {
		return nil, domain.NewValidationError("items", "must not be empty")
	}
	if len(entries) > MaxBatchSize {
		return nil, domain.NewValidationError("items", fmt.Sprintf("at most %d items per batch", MaxBatchSize))
	}

	results := make([]ItemResult, len(entries))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, e := range entries {
		g.Go(func() error {
			doc, err := s.Ingest(ctx, p, e)
			results[i] = ItemResult{Index: i, Document: doc, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		s.logger.Warn("Batch ingestion partially failed",
			zap.String("project_id", p.ID),
			zap.Int("total", len(entries)),
			zap.Int("failed", failed),
		)
	}
	return results, nil
}

func (s *Service) enrichmentFailed(p domproject.Project, step string, err error) error {
	metrics.IngestionTotal.WithLabelValues("enrichment_failed").Inc()
	s.logger.Warn("Log enrichment failed",
		zap.String("project_id", p.ID),
		zap.String("step", step),
		zap.Error(err),
	)
	return fmt.Errorf("%s: %w: %w", step, domain.ErrEnrichment, err)
}
