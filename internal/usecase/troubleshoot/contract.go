package troubleshoot

import (
	"context"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
	"github.com/lognlook/lognlook/internal/domain/search/result"
	"github.com/lognlook/lognlook/internal/usecase/llm"
	"github.com/lognlook/lognlook/internal/usecase/retrieval"
)

// ProjectReader resolves a project to its index and language.
type ProjectReader interface {
	Get(ctx context.Context, id string) (domproject.Project, error)
}

// LogReader fetches logs by id.
type LogReader interface {
	SearchByID(ctx context.Context, index string, ids []string) ([]logdoc.Document, error)
}

// Analyst generates the troubleshooting text.
type Analyst interface {
	Troubleshoot(ctx context.Context, query string, logs []logdoc.Document, lang domain.Language) (llm.Troubleshooting, error)
}

// Retriever finds the logs relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, index string, q retrieval.Query) ([]result.Result, error)
}
