package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CreateProject registers a project and returns it with its ingestion key.
func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := s.projects.Create(r.Context(), req.Name, req.Keywords, req.Language)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(p, true))
}

// ListProjects returns every project without ingestion keys.
func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.projects.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]projectResponse, 0, len(list))
	for _, p := range list {
		items = append(items, toProjectResponse(p, false))
	}
	writeJSON(w, http.StatusOK, projectListResponse{Items: items, Count: len(items)})
}

// GetProject returns one project.
func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p, true))
}

// DeleteProject removes a project and its index.
func (s *Server) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.Delete(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateKeywords replaces the classification vocabulary. Already stored
// documents keep their keyword.
func (s *Server) UpdateKeywords(w http.ResponseWriter, r *http.Request) {
	var req updateKeywordsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := s.projects.UpdateKeywords(r.Context(), chi.URLParam(r, "projectID"), req.Keywords)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p, false))
}
