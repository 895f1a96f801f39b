package logs

import (
	"context"
	"time"

	"github.com/lognlook/lognlook/internal/domain/logdoc"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
	"github.com/lognlook/lognlook/internal/domain/search/result"
)

// ProjectReader resolves a project to its index.
type ProjectReader interface {
	Get(ctx context.Context, id string) (domproject.Project, error)
}

// Store is the read side of the document store used for browsing.
type Store interface {
	SearchByDatetime(ctx context.Context, index, field string, start, end time.Time, limit int) ([]result.Result, error)
	SearchRecent(ctx context.Context, index string, offset, limit int) ([]result.Result, error)
	SearchByID(ctx context.Context, index string, ids []string) ([]logdoc.Document, error)
}
