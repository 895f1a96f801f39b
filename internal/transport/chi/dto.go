package chi

import (
	"encoding/json"
	"time"

	"github.com/lognlook/lognlook/internal/domain/logdoc"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
	"github.com/lognlook/lognlook/internal/domain/search/result"
	"github.com/lognlook/lognlook/internal/usecase/retrieval"
	"github.com/lognlook/lognlook/internal/usecase/troubleshoot"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type createProjectRequest struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Language string   `json:"language"`
}

type updateKeywordsRequest struct {
	Keywords []string `json:"keywords"`
}

type projectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IndexName string    `json:"index_name"`
	APIKey    string    `json:"api_key,omitempty"`
	Language  string    `json:"language"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"created_at"`
}

type projectListResponse struct {
	Items []projectResponse `json:"items"`
	Count int               `json:"count"`
}

// toProjectResponse renders p. The ingestion key is only included when
// withKey is set: on creation and single-project reads.
func toProjectResponse(p domproject.Project, withKey bool) projectResponse {
	kw := p.Keywords
	if kw == nil {
		kw = []string{}
	}
	resp := projectResponse{
		ID:        p.ID,
		Name:      p.Name,
		IndexName: p.IndexName,
		Language:  string(p.Language),
		Keywords:  kw,
		CreatedAt: p.CreatedAt,
	}
	if withKey {
		resp.APIKey = p.APIKey
	}
	return resp
}

type ingestRequest struct {
	Message string                     `json:"message"`
	Extras  map[string]json.RawMessage `json:"extras,omitempty"`
}

type ingestBatchRequest struct {
	Items []ingestRequest `json:"items"`
}

type batchItemResponse struct {
	Index    int              `json:"index"`
	Status   string           `json:"status"`
	Document *logdoc.Document `json:"document,omitempty"`
	Error    *ErrorResponse   `json:"error,omitempty"`
}

type batchResponse struct {
	Items     []batchItemResponse `json:"items"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

type documentsResponse struct {
	Items []logdoc.Document `json:"items"`
	Count int               `json:"count"`
}

func toDocumentsResponse(docs []logdoc.Document) documentsResponse {
	if docs == nil {
		docs = []logdoc.Document{}
	}
	return documentsResponse{Items: docs, Count: len(docs)}
}

type searchHit struct {
	ID       string           `json:"id"`
	Score    float64          `json:"score"`
	Document *logdoc.Document `json:"document,omitempty"`
}

type searchResponse struct {
	Items []searchHit `json:"items"`
	Count int         `json:"count"`
}

type hybridHit struct {
	result.Ranked
	Document *logdoc.Document `json:"document,omitempty"`
}

type hybridResponse struct {
	Items []hybridHit `json:"items"`
	Count int         `json:"count"`
}

// toSearchResponse renders engine hits. Stored vectors are never returned.
func toSearchResponse(hits []result.Result) searchResponse {
	items := make([]searchHit, 0, len(hits))
	for i := range hits {
		items = append(items, searchHit{
			ID:       hits[i].ID(),
			Score:    hits[i].Score(),
			Document: stripVector(hits[i].Document()),
		})
	}
	return searchResponse{Items: items, Count: len(items)}
}

func toHybridResponse(hits []result.Result) hybridResponse {
	ranked := retrieval.Ranked(hits)
	items := make([]hybridHit, 0, len(hits))
	for i := range hits {
		items = append(items, hybridHit{
			Ranked:   ranked[i],
			Document: stripVector(hits[i].Document()),
		})
	}
	return hybridResponse{Items: items, Count: len(items)}
}

func stripVector(d *logdoc.Document) *logdoc.Document {
	if d == nil {
		return nil
	}
	out := d.WithoutVector()
	return &out
}

type troubleshootRequest struct {
	UserQuery   string   `json:"user_query"`
	RelatedLogs []string `json:"related_logs,omitempty"`
	Keyword     *string  `json:"keyword,omitempty"`
	LogLevel    *string  `json:"log_level,omitempty"`
	StartTime   *string  `json:"start_time,omitempty"`
	EndTime     *string  `json:"end_time,omitempty"`
	K           int      `json:"k,omitempty"`
}

type troubleshootResponse struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Fallback bool              `json:"fallback"`
	Logs     []logdoc.Document `json:"logs"`
}

func toTroubleshootResponse(a troubleshoot.Analysis) troubleshootResponse {
	logs := make([]logdoc.Document, 0, len(a.Logs))
	for _, d := range a.Logs {
		logs = append(logs, d.WithoutVector())
	}
	return troubleshootResponse{
		Title:    a.Title,
		Content:  a.Content,
		Fallback: a.Fallback,
		Logs:     logs,
	}
}
