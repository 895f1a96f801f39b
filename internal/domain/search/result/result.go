package result

import "github.com/lognlook/lognlook/internal/domain/logdoc"

// Result is a single retrieval hit. Score is the engine score for single-mode
// searches and the fused RRF score for hybrid searches.
type Result struct {
	id       string
	score    float64
	document *logdoc.Document
}

// New creates a search result. document may be nil when only ids are known.
func New(id string, score float64, document *logdoc.Document) Result {
	return Result{id: id, score: score, document: document}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the relevance score.
func (r *Result) Score() float64 { return r.score }

// Document returns the stored document, nil if not loaded.
func (r *Result) Document() *logdoc.Document { return r.document }

// Ranked is a fused hybrid hit: document id and its RRF score.
type Ranked struct {
	DocumentID string  `json:"document_id"`
	FusedScore float64 `json:"fused_score"`
}
