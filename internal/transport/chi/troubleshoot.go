package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/usecase/retrieval"
	"github.com/lognlook/lognlook/internal/usecase/troubleshoot"
)

// Troubleshoot explains the given logs in answer to user_query. Without
// related_logs the logs are retrieved semantically from the query and the
// optional filters.
func (s *Server) Troubleshoot(w http.ResponseWriter, r *http.Request) {
	var req troubleshootRequest
	if !decodeBody(w, r, &req) {
		return
	}
	projectID := chi.URLParam(r, "projectID")

	var (
		a   troubleshoot.Analysis
		err error
	)
	if len(req.RelatedLogs) > 0 {
		a, err = s.troubleshooter.Analyze(r.Context(), projectID, req.UserQuery, req.RelatedLogs)
	} else {
		var q retrieval.Query
		q, err = s.troubleshootQuery(req)
		if err == nil {
			a, err = s.troubleshooter.Ask(r.Context(), projectID, q)
		}
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTroubleshootResponse(a))
}

func (s *Server) troubleshootQuery(req troubleshootRequest) (retrieval.Query, error) {
	start, err := parseTime("start_time", req.StartTime)
	if err != nil {
		return retrieval.Query{}, err
	}
	end, err := parseTime("end_time", req.EndTime)
	if err != nil {
		return retrieval.Query{}, err
	}
	k := req.K
	if k == 0 {
		k = s.opts.DefaultK
	}
	if k < 0 {
		return retrieval.Query{}, domain.NewValidationError("k", "must be positive")
	}
	return retrieval.Query{
		Text:      req.UserQuery,
		Keyword:   req.Keyword,
		LogLevel:  req.LogLevel,
		StartTime: start,
		EndTime:   end,
		K:         k,
	}, nil
}
