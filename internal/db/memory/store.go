// Package memory is an in-process db.Store backed by bleve. It serves local
// development and tests where no Redis or Valkey instance is available.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/lognlook/lognlook/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type kvEntry struct {
	value   []byte
	expires time.Time
}

// ftIndex is a bleve index plus the vectors of the documents it covers.
// Vectors are kept outside bleve and scored by brute force.
type ftIndex struct {
	def     db.IndexDefinition
	bleve   bleve.Index
	vectors map[string]map[string][]float32 // field -> key -> vector
}

// Store implements db.Store in memory.
type Store struct {
	mu      sync.RWMutex
	closed  bool
	kv      map[string]kvEntry
	docs    map[string][]byte
	indexes map[string]*ftIndex
	now     func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		kv:      make(map[string]kvEntry),
		docs:    make(map[string][]byte),
		indexes: make(map[string]*ftIndex),
		now:     time.Now,
	}
}

// Ping reports an error once the store is closed.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("ping: store is closed")
	}
	return nil
}

// WaitForReady returns immediately; the store is ready on construction.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close releases all bleve indexes.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, idx := range s.indexes {
		_ = idx.bleve.Close()
	}
	s.indexes = make(map[string]*ftIndex)
	s.closed = true
}

// --- KV ---

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.kv[key]
	if !ok || (!e.expires.IsZero() && !s.now().Before(e.expires)) {
		return nil, db.ErrKeyNotFound
	}
	return e.value, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = kvEntry{value: append([]byte(nil), value...)}
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = kvEntry{value: append([]byte(nil), value...), expires: s.now().Add(ttl)}
	return nil
}

// --- JSON ---

// JSONSet stores a whole JSON document. Only the root path "$" is supported.
func (s *Store) JSONSet(_ context.Context, key, path string, data []byte) error {
	if path != "$" {
		return &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("unsupported path %q", path)}
	}

	var attrs map[string]any
	if err := json.Unmarshal(data, &attrs); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, idx := range s.indexes {
		if !idx.covers(key) {
			continue
		}
		if err := idx.put(key, attrs); err != nil {
			return &db.Error{Op: db.OpJSONSet, Err: err}
		}
	}
	s.docs[key] = append([]byte(nil), data...)
	return nil
}

// JSONGet returns the document at key. With the "$" path the document is
// wrapped in an array, as JSONPath replies are.
func (s *Store) JSONGet(_ context.Context, key string, paths ...string) ([]byte, error) {
	s.mu.RLock()
	doc, ok := s.docs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, db.ErrKeyNotFound
	}

	switch {
	case len(paths) == 0:
		return doc, nil
	case len(paths) == 1 && paths[0] == "$":
		return []byte("[" + string(doc) + "]"), nil
	default:
		return nil, &db.Error{Op: db.OpJSONGet, Err: fmt.Errorf("unsupported paths %v", paths)}
	}
}

// JSONGetMulti returns one entry per key, nil where the key does not exist.
func (s *Store) JSONGetMulti(_ context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = s.docs[k]
	}
	return out, nil
}

// Del removes a key from the KV space, the document space and every index.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.kv, key)
	if _, ok := s.docs[key]; !ok {
		return nil
	}
	delete(s.docs, key)
	for _, idx := range s.indexes {
		if idx.covers(key) {
			if err := idx.remove(key); err != nil {
				return &db.Error{Op: db.OpDel, Err: err}
			}
		}
	}
	return nil
}

// --- Index lifecycle ---

// CreateIndex builds a bleve index for def and indexes existing documents
// under its prefixes.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}

	bi, err := bleve.NewMemOnly(buildMapping(def))
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	idx := &ftIndex{def: *def, bleve: bi, vectors: make(map[string]map[string][]float32)}
	for key, raw := range s.docs {
		if !idx.covers(key) {
			continue
		}
		var attrs map[string]any
		if err := json.Unmarshal(raw, &attrs); err != nil {
			continue
		}
		if err := idx.put(key, attrs); err != nil {
			_ = bi.Close()
			return &db.Error{Op: db.OpCreateIndex, Err: err}
		}
	}

	s.indexes[def.Name] = idx
	return nil
}

// DropIndex removes the index and the documents it covers.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexes[name]
	if !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)

	for key := range s.docs {
		if idx.covers(key) {
			delete(s.docs, key)
		}
	}
	if err := idx.bleve.Close(); err != nil {
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists reports whether the index is registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// buildMapping maps TAG to keyword, TEXT to analyzed text and NUMERIC to
// numeric fields. Vector fields stay out of bleve.
func buildMapping(def *db.IndexDefinition) mapping.IndexMapping {
	doc := bleve.NewDocumentStaticMapping()
	for i := range def.Fields {
		f := &def.Fields[i]
		switch f.Type {
		case db.IndexFieldTag:
			doc.AddFieldMappingsAt(f.QueryName(), bleve.NewKeywordFieldMapping())
		case db.IndexFieldText:
			doc.AddFieldMappingsAt(f.QueryName(), bleve.NewTextFieldMapping())
		case db.IndexFieldNumeric:
			doc.AddFieldMappingsAt(f.QueryName(), bleve.NewNumericFieldMapping())
		}
	}

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

func (idx *ftIndex) covers(key string) bool {
	if len(idx.def.Prefixes) == 0 {
		return true
	}
	for _, p := range idx.def.Prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// put projects the document attributes onto the schema and indexes them.
func (idx *ftIndex) put(key string, attrs map[string]any) error {
	fields := make(map[string]any, len(idx.def.Fields))
	for i := range idx.def.Fields {
		f := &idx.def.Fields[i]
		v, ok := attrs[strings.TrimPrefix(f.Name, "$.")]
		if !ok || v == nil {
			if f.Type == db.IndexFieldVector {
				delete(idx.vectors[f.QueryName()], key)
			}
			continue
		}

		switch f.Type {
		case db.IndexFieldVector:
			vec, err := toVector(v, f.VectorDim)
			if err != nil {
				return fmt.Errorf("field %s: %w", f.QueryName(), err)
			}
			if idx.vectors[f.QueryName()] == nil {
				idx.vectors[f.QueryName()] = make(map[string][]float32)
			}
			idx.vectors[f.QueryName()][key] = vec
		case db.IndexFieldNumeric:
			if n, ok := v.(float64); ok {
				fields[f.QueryName()] = n
			}
		default:
			if str, ok := v.(string); ok {
				fields[f.QueryName()] = str
			}
		}
	}
	return idx.bleve.Index(key, fields)
}

func (idx *ftIndex) remove(key string) error {
	for _, vs := range idx.vectors {
		delete(vs, key)
	}
	return idx.bleve.Delete(key)
}

func toVector(v any, dim int) ([]float32, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("vector must be an array")
	}
	if dim > 0 && len(arr) != dim {
		return nil, fmt.Errorf("vector dimension %d, want %d", len(arr), dim)
	}
	out := make([]float32, len(arr))
	for i, x := range arr {
		n, ok := x.(float64)
		if !ok {
			return nil, fmt.Errorf("vector element %d is not a number", i)
		}
		out[i] = float32(n)
	}
	return out, nil
}
