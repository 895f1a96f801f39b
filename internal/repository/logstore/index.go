package logstore

import (
	"fmt"

	"github.com/lognlook/lognlook/internal/db"
	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
)

// timestampPath holds message_timestamp as epoch seconds; the FT schema
// aliases it back to message_timestamp so filters address one name.
const timestampPath = "$." + logdoc.FieldStoredTimestamp

// HNSWConfig holds HNSW index tuning parameters.
type HNSWConfig struct {
	M           int // max edges per node (default 16)
	EFConstruct int // build-time candidate list size (default 200)
}

// Mapping is the schema of a project log index.
type Mapping struct {
	VectorDim int
	HNSW      HNSWConfig
}

// DefaultMapping returns the log mapping with dimension dim.
func DefaultMapping(dim int) Mapping {
	if dim <= 0 {
		dim = domain.DefaultVectorDimensions
	}
	return Mapping{VectorDim: dim, HNSW: HNSWConfig{M: 16, EFConstruct: 200}}
}

// buildIndex creates the FT definition for a project index: free text on
// message and comment, exact tags on log_level and keyword, a sortable
// numeric timestamp and a cosine HNSW vector over the comment embedding.
func (r *Repo) buildIndex(index string, m Mapping) (*db.IndexDefinition, error) {
	if m.VectorDim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}
	def, err := db.NewIndex(r.indexName(index)).
		Prefix(r.keyPrefix(index)).
		Text(logdoc.FieldMessage).
		Text(logdoc.FieldComment).
		Tag(logdoc.FieldLogLevel).
		Tag(logdoc.FieldKeyword).
		Numeric(timestampPath, logdoc.FieldMessageTimestamp, true).
		VectorHNSW(logdoc.FieldVector, m.VectorDim, db.DistanceCosine, m.HNSW.M, m.HNSW.EFConstruct).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build index %s: %w", index, err)
	}
	return def, nil
}

// fieldType resolves a queryable field of the log schema.
func fieldType(name string) (db.IndexFieldType, bool) {
	switch name {
	case logdoc.FieldMessage, logdoc.FieldComment:
		return db.IndexFieldText, true
	case logdoc.FieldLogLevel, logdoc.FieldKeyword:
		return db.IndexFieldTag, true
	case logdoc.FieldMessageTimestamp:
		return db.IndexFieldNumeric, true
	case logdoc.FieldVector:
		return db.IndexFieldVector, true
	default:
		return 0, false
	}
}

func requireField(name string, want db.IndexFieldType, kind string) error {
	t, ok := fieldType(name)
	if !ok || t != want {
		return domain.NewValidationError("field", fmt.Sprintf("%q is not a %s field", name, kind))
	}
	return nil
}
