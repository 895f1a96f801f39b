// Package logstore is the document store client for project log indexes.
// Every operation is a network call against the underlying store; documents
// are never cached here.
package logstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lognlook/lognlook/internal/db"
	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
	"github.com/lognlook/lognlook/internal/domain/search/filter"
	"github.com/lognlook/lognlook/internal/domain/search/request"
	"github.com/lognlook/lognlook/internal/domain/search/result"
)

// store is the consumer interface for the log store (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
}

// Config holds the key layout and default mapping.
type Config struct {
	KeyPrefix string
	VectorDim int
	HNSW      HNSWConfig
}

// Repo is the Document Store Client.
type Repo struct {
	store    store
	embedder domain.Embedder
	cfg      Config
	newID    func() string
}

// New creates a log store repository. embedder vectorizes query text for
// SearchByVector.
func New(s store, embedder domain.Embedder, cfg Config) *Repo {
	if cfg.VectorDim <= 0 {
		cfg.VectorDim = domain.DefaultVectorDimensions
	}
	return &Repo{store: s, embedder: embedder, cfg: cfg, newID: uuid.NewString}
}

// DefaultMapping is the mapping used by the ensure-exists path of SaveDocument.
func (r *Repo) DefaultMapping() Mapping {
	m := DefaultMapping(r.cfg.VectorDim)
	if r.cfg.HNSW.M > 0 {
		m.HNSW.M = r.cfg.HNSW.M
	}
	if r.cfg.HNSW.EFConstruct > 0 {
		m.HNSW.EFConstruct = r.cfg.HNSW.EFConstruct
	}
	return m
}

// CreateIndex creates a project index. It fails with ErrIndexAlreadyExists
// when the index is present.
func (r *Repo) CreateIndex(ctx context.Context, index string, m Mapping) error {
	if err := validateIndexName(index); err != nil {
		return err
	}
	def, err := r.buildIndex(index, m)
	if err != nil {
		return domain.NewValidationError("mapping", err.Error())
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return storeErr("create index", index, err)
	}
	return nil
}

// DeleteIndex removes the index and all its documents. It fails with
// ErrIndexNotFound when the index is absent.
func (r *Repo) DeleteIndex(ctx context.Context, index string) error {
	if err := validateIndexName(index); err != nil {
		return err
	}
	if err := r.store.DropIndex(ctx, r.indexName(index)); err != nil {
		return storeErr("delete index", index, err)
	}
	return nil
}

// IndexExists reports whether the project index exists.
func (r *Repo) IndexExists(ctx context.Context, index string) (bool, error) {
	if err := validateIndexName(index); err != nil {
		return false, err
	}
	ok, err := r.store.IndexExists(ctx, r.indexName(index))
	if err != nil {
		return false, storeErr("index exists", index, err)
	}
	return ok, nil
}

// CreateDefaultIndex creates the index with the default mapping. It fails
// with ErrIndexAlreadyExists when the index is present.
func (r *Repo) CreateDefaultIndex(ctx context.Context, index string) error {
	return r.CreateIndex(ctx, index, r.DefaultMapping())
}

// EnsureIndex creates the index with the default mapping unless it exists.
// Losing a creation race is not an error.
func (r *Repo) EnsureIndex(ctx context.Context, index string) error {
	ok, err := r.IndexExists(ctx, index)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	err = r.CreateDefaultIndex(ctx, index)
	if errors.Is(err, domain.ErrIndexAlreadyExists) {
		return nil
	}
	return err
}

// SaveDocument stores doc under a fresh id and returns the id. The index is
// created with the default mapping if it does not exist yet.
func (r *Repo) SaveDocument(ctx context.Context, index string, doc logdoc.Document) (string, error) {
	if strings.TrimSpace(doc.Message) == "" {
		return "", domain.NewValidationError("message", "is required")
	}
	if len(doc.Vector) > 0 && len(doc.Vector) != r.cfg.VectorDim {
		return "", domain.NewValidationError("vector",
			fmt.Sprintf("dimension %d, want %d", len(doc.Vector), r.cfg.VectorDim))
	}
	if err := r.EnsureIndex(ctx, index); err != nil {
		return "", err
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return "", err
	}

	id := r.newID()
	if err := r.store.JSONSet(ctx, r.docKey(index, id), "$", data); err != nil {
		return "", storeErr("save document", index, err)
	}
	return id, nil
}

// SearchByID returns the documents with the given ids in request order.
// Unknown ids are skipped; an empty answer is valid.
func (r *Repo) SearchByID(ctx context.Context, index string, ids []string) ([]logdoc.Document, error) {
	if err := r.requireIndex(ctx, index); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(index, id)
	}
	raws, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, storeErr("search by id", index, err)
	}

	docs := make([]logdoc.Document, 0, len(raws))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		doc, err := decodeDocument(ids[i], raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// SearchByTerms returns up to limit documents whose tag field equals any of values.
func (r *Repo) SearchByTerms(
	ctx context.Context, index, field string, values []string, limit int,
) ([]result.Result, error) {
	if err := validateIndexName(index); err != nil {
		return nil, err
	}
	if err := requireField(field, db.IndexFieldTag, "tag"); err != nil {
		return nil, err
	}
	if err := request.ValidateK(limit); err != nil {
		return nil, err
	}
	expr, err := filter.AnyOf(field, values)
	if err != nil {
		return nil, domain.NewValidationError("values", err.Error())
	}
	if expr.IsEmpty() {
		return nil, nil
	}

	res, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: r.indexName(index),
		Filters:   expr,
		Limit:     limit,
	})
	if err != nil {
		return nil, storeErr("search by terms", index, err)
	}
	return r.toResults(index, res)
}

// SearchByText runs BM25 over a text field, best match first.
func (r *Repo) SearchByText(
	ctx context.Context, index, query, field string, limit int,
) ([]result.Result, error) {
	if err := validateIndexName(index); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query_text", "is required")
	}
	if err := requireField(field, db.IndexFieldText, "text"); err != nil {
		return nil, err
	}
	if err := request.ValidateK(limit); err != nil {
		return nil, err
	}

	res, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName: r.indexName(index),
		Field:     field,
		Query:     query,
		TopK:      limit,
	})
	if err != nil {
		return nil, storeErr("search by text", index, err)
	}
	return r.toResults(index, res)
}

// SearchByVector embeds queryText and returns the k nearest documents by
// cosine similarity among at most candidatePool candidates, restricted by expr.
func (r *Repo) SearchByVector(
	ctx context.Context, index, queryText, vectorField string,
	expr filter.Expression, k, candidatePool int,
) ([]result.Result, error) {
	if err := validateIndexName(index); err != nil {
		return nil, err
	}
	if strings.TrimSpace(queryText) == "" {
		return nil, domain.NewValidationError("query_text", "is required")
	}
	if err := requireField(vectorField, db.IndexFieldVector, "vector"); err != nil {
		return nil, err
	}
	if err := request.ValidateK(k); err != nil {
		return nil, err
	}
	if candidatePool < k {
		return nil, domain.NewValidationError("candidate_pool", "must not be smaller than k")
	}

	emb, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:   r.indexName(index),
		Filters:     expr,
		VectorField: vectorField,
		Vector:      emb.Embedding,
		K:           k,
		EFRuntime:   candidatePool,
	})
	if err != nil {
		return nil, storeErr("search by vector", index, err)
	}
	return r.toResults(index, res)
}

// SearchByDatetime returns up to limit documents with field in [start, end],
// newest first.
func (r *Repo) SearchByDatetime(
	ctx context.Context, index, field string, start, end time.Time, limit int,
) ([]result.Result, error) {
	if err := validateIndexName(index); err != nil {
		return nil, err
	}
	if err := requireField(field, db.IndexFieldNumeric, "datetime"); err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, domain.NewValidationError("start_time", "must not be after end_time")
	}
	if err := request.ValidateK(limit); err != nil {
		return nil, err
	}
	return r.listByTime(ctx, index, field, &start, &end, 0, limit)
}

// SearchRecent pages through the index newest first, regardless of time.
func (r *Repo) SearchRecent(ctx context.Context, index string, offset, limit int) ([]result.Result, error) {
	if err := validateIndexName(index); err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, domain.NewValidationError("page", "must be positive")
	}
	if err := request.ValidateK(limit); err != nil {
		return nil, err
	}
	return r.listByTime(ctx, index, logdoc.FieldMessageTimestamp, nil, nil, offset, limit)
}

func (r *Repo) listByTime(
	ctx context.Context, index, field string, start, end *time.Time, offset, limit int,
) ([]result.Result, error) {
	var rng *filter.RangeSpec
	if start != nil && end != nil {
		lo, hi := request.EpochSeconds(*start), request.EpochSeconds(*end)
		rng = &filter.RangeSpec{Field: field, Lower: &lo, Upper: &hi}
	}
	expr, err := filter.Build(nil, rng)
	if err != nil {
		return nil, domain.NewValidationError("range", err.Error())
	}

	res, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName:  r.indexName(index),
		Filters:    expr,
		SortBy:     field,
		Descending: true,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		return nil, storeErr("search by datetime", index, err)
	}
	return r.toResults(index, res)
}

func (r *Repo) requireIndex(ctx context.Context, index string) error {
	ok, err := r.IndexExists(ctx, index)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewIndexError(index, domain.ErrIndexNotFound)
	}
	return nil
}

func (r *Repo) toResults(index string, res *db.SearchResult) ([]result.Result, error) {
	if res == nil || len(res.Entries) == 0 {
		return nil, nil
	}
	out := make([]result.Result, 0, len(res.Entries))
	for _, e := range res.Entries {
		id := r.extractDocID(index, e.Key)
		var doc *logdoc.Document
		if len(e.Doc) > 0 {
			d, err := decodeDocument(id, e.Doc)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
			}
			doc = &d
		}
		out = append(out, result.New(id, e.Score, doc))
	}
	return out, nil
}

// storeErr maps driver errors onto the domain taxonomy.
func storeErr(op, index string, err error) error {
	switch {
	case errors.Is(err, db.ErrIndexNotFound):
		return domain.NewIndexError(index, domain.ErrIndexNotFound)
	case errors.Is(err, db.ErrIndexExists):
		return domain.NewIndexError(index, domain.ErrIndexAlreadyExists)
	default:
		return fmt.Errorf("%s %s: %w: %w", op, index, domain.ErrStore, err)
	}
}

// validateIndexName allows [a-zA-Z0-9_-]; ':' is the key separator.
func validateIndexName(index string) error {
	if !db.IsValidIdentifier(index) || strings.Contains(index, ":") {
		return domain.NewValidationError("index", fmt.Sprintf("invalid index name %q", index))
	}
	return nil
}

func (r *Repo) keyPrefix(index string) string {
	return r.cfg.KeyPrefix + index + ":"
}

func (r *Repo) docKey(index, id string) string {
	return r.keyPrefix(index) + id
}

func (r *Repo) indexName(index string) string {
	return r.keyPrefix(index) + "idx"
}

func (r *Repo) extractDocID(index, key string) string {
	return strings.TrimPrefix(key, r.keyPrefix(index))
}
