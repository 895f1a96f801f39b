package retrieval

import (
	"context"

	"github.com/lognlook/lognlook/internal/domain/search/filter"
	"github.com/lognlook/lognlook/internal/domain/search/result"
)

// Store defines the read primitives the retriever composes.
type Store interface {
	SearchByVector(
		ctx context.Context, index, queryText, vectorField string,
		expr filter.Expression, k, candidatePool int,
	) ([]result.Result, error)

	SearchByText(ctx context.Context, index, query, field string, limit int) ([]result.Result, error)
}
