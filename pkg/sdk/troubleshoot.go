package lognlook

import (
	"context"
	"fmt"
	"time"

	"github.com/lognlook/lognlook/internal/usecase/troubleshoot"
)

// TroubleshootService answers questions about a project's logs.
type TroubleshootService struct {
	projectID string
	svc       troubleshootUseCase
	obs       *observer
}

// Analyze explains the logs with the given ids in answer to question.
func (s *TroubleshootService) Analyze(ctx context.Context, question string, logIDs ...string) (_ Analysis, err error) {
	start := time.Now()
	defer func() { s.obs.observe("troubleshoot.analyze", start, err) }()

	a, err := s.svc.Analyze(ctx, s.projectID, question, logIDs)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze: %w", err)
	}
	return fromInternalAnalysis(a), nil
}

// Ask retrieves the logs most relevant to q.Text and explains them.
func (s *TroubleshootService) Ask(ctx context.Context, q Query) (_ Analysis, err error) {
	start := time.Now()
	defer func() { s.obs.observe("troubleshoot.ask", start, err) }()

	a, err := s.svc.Ask(ctx, s.projectID, toInternalQuery(q))
	if err != nil {
		return Analysis{}, fmt.Errorf("ask: %w", err)
	}
	return fromInternalAnalysis(a), nil
}

func fromInternalAnalysis(a troubleshoot.Analysis) Analysis {
	return Analysis{
		Title:    a.Title,
		Content:  a.Content,
		Fallback: a.Fallback,
		Logs:     fromInternalLogs(a.Logs),
	}
}
