package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	logsuc "github.com/lognlook/lognlook/internal/usecase/logs"
	"github.com/lognlook/lognlook/internal/usecase/pipeline"
	"github.com/lognlook/lognlook/internal/usecase/retrieval"
)

// IngestLog enriches and stores one log line for the calling project.
func (s *Server) IngestLog(w http.ResponseWriter, r *http.Request) {
	p, ok := projectFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "project not resolved")
		return
	}

	var req ingestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	doc, err := s.ingester.Ingest(r.Context(), p, pipeline.Entry{Message: req.Message, Extras: req.Extras})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc.WithoutVector())
}

// IngestBatch ingests up to pipeline.MaxBatchSize lines. The response is 200
// with a per-item status even when some lines fail.
func (s *Server) IngestBatch(w http.ResponseWriter, r *http.Request) {
	p, ok := projectFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "project not resolved")
		return
	}

	var req ingestBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entries := make([]pipeline.Entry, len(req.Items))
	for i, it := range req.Items {
		entries[i] = pipeline.Entry{Message: it.Message, Extras: it.Extras}
	}

	results, err := s.ingester.IngestBatch(r.Context(), p, entries)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := batchResponse{Items: make([]batchItemResponse, 0, len(results))}
	for _, res := range results {
		item := batchItemResponse{Index: res.Index}
		if res.Err != nil {
			item.Status = "error"
			item.Error = &ErrorResponse{Code: errorCode(res.Err), Message: safeDomainMessage(res.Err)}
			resp.Failed++
		} else {
			doc := res.Document.WithoutVector()
			item.Status = "ok"
			item.Document = &doc
			resp.Succeeded++
		}
		resp.Items = append(resp.Items, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

type searchParams struct {
	QueryText *string
	Keyword   *string
	LogLevel  *string
	StartTime *string
	EndTime   *string
	K         *int
}

// SearchLogs runs a filtered semantic search over a project's logs.
func (s *Server) SearchLogs(w http.ResponseWriter, r *http.Request) {
	var params searchParams
	for _, b := range []struct {
		name string
		dest any
	}{
		{"query_text", &params.QueryText},
		{"keyword", &params.Keyword},
		{"log_level", &params.LogLevel},
		{"start_time", &params.StartTime},
		{"end_time", &params.EndTime},
		{"k", &params.K},
	} {
		if err := bindQuery(r, b.name, false, b.dest); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}

	start, err := parseTime("start_time", params.StartTime)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	end, err := parseTime("end_time", params.EndTime)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	index, err := s.projectIndex(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	q := retrieval.Query{
		Keyword:   params.Keyword,
		LogLevel:  params.LogLevel,
		StartTime: start,
		EndTime:   end,
		K:         intOr(params.K, s.opts.DefaultK),
	}
	if params.QueryText != nil {
		q.Text = *params.QueryText
	}

	hits, err := s.retriever.Retrieve(r.Context(), index, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponse(hits))
}

// HybridSearch fuses semantic and keyword rankings with RRF.
func (s *Server) HybridSearch(w http.ResponseWriter, r *http.Request) {
	var text string
	var k *int
	if err := bindQuery(r, "query_text", true, &text); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := bindQuery(r, "k", false, &k); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	index, err := s.projectIndex(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	hits, err := s.retriever.HybridSearch(r.Context(), index, text, intOr(k, s.opts.HybridK))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHybridResponse(hits))
}

// Mainboard lists the logs of the last day, week or month.
func (s *Server) Mainboard(w http.ResponseWriter, r *http.Request) {
	var logTime *string
	var limit *int
	if err := bindQuery(r, "log_time", false, &logTime); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := bindQuery(r, "limit", false, &limit); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	preset := logsuc.PresetDay
	if logTime != nil {
		p, err := logsuc.ParsePreset(*logTime)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		preset = p
	}

	docs, err := s.browser.ListByPreset(r.Context(), chi.URLParam(r, "projectID"), preset, intOr(limit, 0))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentsResponse(docs))
}

// RecentLogs pages through logs newest first.
func (s *Server) RecentLogs(w http.ResponseWriter, r *http.Request) {
	var page, pageSize *int
	if err := bindQuery(r, "page", false, &page); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := bindQuery(r, "page_size", false, &pageSize); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	docs, err := s.browser.Recent(r.Context(), chi.URLParam(r, "projectID"), intOr(page, 1), intOr(pageSize, 0))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentsResponse(docs))
}

// LogDetail fetches logs by id. Unknown ids are skipped.
func (s *Server) LogDetail(w http.ResponseWriter, r *http.Request) {
	var ids *[]string
	if err := bindQuery(r, "ids", false, &ids); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var list []string
	if ids != nil {
		list = *ids
	}

	docs, err := s.browser.Detail(r.Context(), chi.URLParam(r, "projectID"), list)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentsResponse(docs))
}

func (s *Server) projectIndex(r *http.Request) (string, error) {
	p, err := s.projects.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		return "", err
	}
	return p.IndexName, nil
}
