package db

import "github.com/lognlook/lognlook/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName   string
	Filters     filter.Expression
	VectorField string
	Vector      []float32
	K           int
	// EFRuntime bounds the HNSW candidate list explored per query. Zero leaves the
	// engine default.
	EFRuntime int
}

// TextQuery is the input for BM25 text search over a single TEXT field.
type TextQuery struct {
	IndexName string
	Field     string
	Query     string
	Filters   filter.Expression
	TopK      int
}

// ListQuery is a filter-only search with optional sorting and paging.
type ListQuery struct {
	IndexName  string
	Filters    filter.Expression
	SortBy     string
	Descending bool
	Offset     int
	Limit      int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search. Doc holds the raw JSON
// document as stored.
type SearchEntry struct {
	Key   string
	Score float64
	Doc   []byte
}
