package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/lognlook/lognlook/internal/db"
	"github.com/lognlook/lognlook/internal/domain/search/filter"
)

// SearchKNN scores every filtered document by exact cosine similarity.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	field := q.VectorField
	if field == "" {
		field = "vector"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}

	candidates, err := idx.matchingKeys(q.Filters)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	vectors := idx.vectors[field]
	entries := make([]db.SearchEntry, 0, len(candidates))
	for _, key := range candidates {
		vec, ok := vectors[key]
		if !ok {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:   key,
			Score: cosine(q.Vector, vec),
			Doc:   s.docs[key],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Key < entries[j].Key
	})
	if len(entries) > q.K {
		entries = entries[:q.K]
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// SearchText runs a bleve match query on a single text field.
func (s *Store) SearchText(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Field == "" {
		return nil, fmt.Errorf("field is required")
	}
	if strings.TrimSpace(q.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if q.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}

	match := bleve.NewMatchQuery(q.Query)
	match.SetField(q.Field)

	var bq query.Query = match
	if !q.Filters.IsEmpty() {
		bq = bleve.NewConjunctionQuery(match, buildQuery(q.Filters))
	}

	req := bleve.NewSearchRequestOptions(bq, q.TopK, 0, false)
	res, err := idx.bleve.Search(req)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	entries := make([]db.SearchEntry, 0, len(res.Hits))
	for _, h := range res.Hits {
		entries = append(entries, db.SearchEntry{Key: h.ID, Score: h.Score, Doc: s.docs[h.ID]})
	}
	return &db.SearchResult{Total: int(res.Total), Entries: entries}, nil
}

// SearchList runs a filter-only query with optional sort and paging.
func (s *Store) SearchList(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, fmt.Errorf("offset and limit must not be negative")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q.Filters), q.Limit, q.Offset, false)
	if q.SortBy != "" {
		order := q.SortBy
		if q.Descending {
			order = "-" + order
		}
		req.SortBy([]string{order, "_id"})
	} else {
		req.SortBy([]string{"_id"})
	}

	res, err := idx.bleve.Search(req)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	entries := make([]db.SearchEntry, 0, len(res.Hits))
	for _, h := range res.Hits {
		entries = append(entries, db.SearchEntry{Key: h.ID, Doc: s.docs[h.ID]})
	}
	return &db.SearchResult{Total: int(res.Total), Entries: entries}, nil
}

// matchingKeys returns every document key matching the filter.
func (idx *ftIndex) matchingKeys(expr filter.Expression) ([]string, error) {
	count, err := idx.bleve.DocCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(buildQuery(expr), int(count), 0, false)
	res, err := idx.bleve.Search(req)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		keys = append(keys, h.ID)
	}
	return keys, nil
}

// buildQuery translates a filter.Expression into a bleve query. The empty
// expression matches all documents.
func buildQuery(expr filter.Expression) query.Query {
	if expr.IsEmpty() {
		return bleve.NewMatchAllQuery()
	}

	parts := make([]query.Query, 0, len(expr.Must())+1)
	for _, c := range expr.Must() {
		parts = append(parts, conditionQuery(c))
	}
	if should := expr.Should(); len(should) > 0 {
		alts := make([]query.Query, 0, len(should))
		for _, c := range should {
			alts = append(alts, conditionQuery(c))
		}
		parts = append(parts, bleve.NewDisjunctionQuery(alts...))
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return bleve.NewConjunctionQuery(parts...)
}

func conditionQuery(c filter.Condition) query.Query {
	if c.IsRange() {
		inclusive := true
		r := c.Range()
		q := bleve.NewNumericRangeInclusiveQuery(r.Min(), r.Max(), &inclusive, &inclusive)
		q.SetField(c.Key())
		return q
	}
	q := bleve.NewTermQuery(c.Match())
	q.SetField(c.Key())
	return q
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
