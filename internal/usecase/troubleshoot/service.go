// Package troubleshoot produces AI analyses of related logs.
package troubleshoot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
	"github.com/lognlook/lognlook/internal/usecase/retrieval"
)

// MaxRelatedLogs bounds the logs sent to the model in one analysis.
const MaxRelatedLogs = 50

// Analysis is a generated troubleshooting report. Fallback is set when the
// placeholder text was returned instead of a model answer.
type Analysis struct {
	Title    string
	Content  string
	Fallback bool
	Logs     []logdoc.Document
}

// Service is the troubleshooting assistant.
type Service struct {
	projects  ProjectReader
	logs      LogReader
	analyst   Analyst
	retriever Retriever
	logger    *zap.Logger
}

// New creates a troubleshooting service.
func New(projects ProjectReader, logs LogReader, analyst Analyst, retriever Retriever, logger *zap.Logger) *Service {
	return &Service{projects: projects, logs: logs, analyst: analyst, retriever: retriever, logger: logger}
}

// Analyze explains the logs identified by logIDs in answer to query. When the
// logs cannot be fetched or the model fails, a placeholder analysis is
// returned with Fallback set; the cause is logged, not returned.
func (s *Service) Analyze(ctx context.Context, projectID, query string, logIDs []string) (Analysis, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Analysis{}, domain.NewValidationError("user_query", "is required")
	}
	if len(logIDs) > MaxRelatedLogs {
		return Analysis{}, domain.NewValidationError("related_logs",
			fmt.Sprintf("at most %d ids", MaxRelatedLogs))
	}

	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return Analysis{}, fmt.Errorf("get project: %w", err)
	}

	var docs []logdoc.Document
	if len(logIDs) > 0 {
		docs, err = s.logs.SearchByID(ctx, p.IndexName, logIDs)
		if err != nil {
			s.logger.Warn("Fetching related logs failed, using placeholder analysis",
				zap.String("project_id", projectID),
				zap.Error(err),
			)
			return fallback(query, nil), nil
		}
	}
	for i := range docs {
		docs[i] = docs[i].WithoutVector()
	}

	out, err := s.analyst.Troubleshoot(ctx, query, docs, p.Language)
	if err != nil {
		s.logger.Warn("Troubleshooting analysis failed, using placeholder analysis",
			zap.String("project_id", projectID),
			zap.Int("logs", len(docs)),
			zap.Error(err),
		)
		return fallback(query, docs), nil
	}

	return Analysis{Title: out.Title, Content: out.Content, Logs: docs}, nil
}

// Ask retrieves the logs most relevant to q and analyzes them.
func (s *Service) Ask(ctx context.Context, projectID string, q retrieval.Query) (Analysis, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return Analysis{}, fmt.Errorf("get project: %w", err)
	}

	hits, err := s.retriever.Retrieve(ctx, p.IndexName, q)
	if err != nil {
		return Analysis{}, fmt.Errorf("retrieve: %w", err)
	}

	ids := make([]string, 0, len(hits))
	for i := range hits {
		ids = append(ids, hits[i].ID())
	}
	return s.Analyze(ctx, projectID, q.Text, ids)
}

// FallbackContent is the placeholder shown while no analysis is available.
func FallbackContent(query string) string {
	return "Analysis in progress for query: " + query
}

func fallback(query string, docs []logdoc.Document) Analysis {
	text := FallbackContent(query)
	return Analysis{Title: text, Content: text, Fallback: true, Logs: docs}
}
