package lognlook

import (
	"context"
	"fmt"
	"time"

	"github.com/lognlook/lognlook/internal/usecase/retrieval"
)

// SearchService searches the logs of one project.
type SearchService struct {
	projectID string
	projects  projectUseCase
	svc       retrievalUseCase
	obs       *observer
}

// Semantic finds the q.K logs whose comment is closest in meaning to q.Text,
// restricted by the optional filters.
func (s *SearchService) Semantic(ctx context.Context, q Query) (_ []SearchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search.semantic", start, err) }()

	index, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	hits, err := s.svc.Retrieve(ctx, index, toInternalQuery(q))
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return fromInternalResults(hits), nil
}

// Hybrid fuses semantic and keyword rankings with reciprocal rank fusion.
func (s *SearchService) Hybrid(ctx context.Context, text string, k int) (_ []SearchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search.hybrid", start, err) }()

	index, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	hits, err := s.svc.HybridSearch(ctx, index, text, k)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	return fromInternalResults(hits), nil
}

func (s *SearchService) index(ctx context.Context) (string, error) {
	p, err := s.projects.Get(ctx, s.projectID)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	return p.IndexName, nil
}

func toInternalQuery(q Query) retrieval.Query {
	out := retrieval.Query{Text: q.Text, K: q.K}
	if q.Keyword != "" {
		kw := q.Keyword
		out.Keyword = &kw
	}
	if q.Level != "" {
		lvl := q.Level
		out.LogLevel = &lvl
	}
	if !q.From.IsZero() {
		from := q.From
		out.StartTime = &from
	}
	if !q.To.IsZero() {
		to := q.To
		out.EndTime = &to
	}
	return out
}
