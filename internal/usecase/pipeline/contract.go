package pipeline

import (
	"context"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
	"github.com/lognlook/lognlook/internal/usecase/llm"
)

// Classifier produces the comment and keyword of a log line.
type Classifier interface {
	Classify(ctx context.Context, message string, vocabulary []string, lang domain.Language) (llm.Classification, error)
}

// Store persists enriched documents.
type Store interface {
	SaveDocument(ctx context.Context, index string, doc logdoc.Document) (string, error)
}
